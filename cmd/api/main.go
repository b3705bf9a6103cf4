package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bijay-develops/single-file-uploader/internal/config"
	"github.com/bijay-develops/single-file-uploader/internal/file"
	"github.com/bijay-develops/single-file-uploader/internal/logger"
	"github.com/bijay-develops/single-file-uploader/internal/presigned"
	"github.com/bijay-develops/single-file-uploader/internal/server"
	"github.com/bijay-develops/single-file-uploader/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logg.Fatal("open storage backend", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer backend.close()

	router, err := server.NewRouter(server.Dependencies{
		Config:      cfg,
		FileService: file.NewService(backend.store),
		Linker:      backend.linker,
	})
	if err != nil {
		logg.Fatal("build router", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("file server listening",
			zap.String("address", fmt.Sprintf("http://%s", cfg.Server.Address())),
			zap.String("backend", cfg.Storage.Backend))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}

type backend struct {
	store  file.Store
	linker file.DownloadLinker
	close  func()
}

func openBackend(ctx context.Context, cfg config.Config) (backend, error) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return backend{store: file.NewMemoryStore(), close: noop}, nil

	case config.BackendMinIO:
		client, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			return backend{}, err
		}
		if err := storage.EnsureBucket(ctx, client, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
			return backend{}, err
		}
		store := file.NewMinIOStore(client, cfg.MinIO.Bucket, cfg.MinIO.Prefix)
		b := backend{store: store, close: noop}
		if cfg.MinIO.PresignDownloads {
			b.linker = presigned.NewService(client, cfg.MinIO.Bucket, store.ObjectName, cfg.MinIO.PresignTTL)
		}
		return b, nil

	case config.BackendPostgres:
		if err := storage.Migrate(cfg.Postgres.DSN()); err != nil {
			return backend{}, err
		}
		pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return backend{}, err
		}
		return backend{store: file.NewPostgresStore(pool), close: pool.Close}, nil

	default:
		store, err := file.NewDiskStore(cfg.Storage.Dir)
		if err != nil {
			return backend{}, err
		}
		return backend{store: store, close: noop}, nil
	}
}
