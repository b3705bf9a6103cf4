//go:build integration

// Backend integration tests. They start throwaway Postgres and MinIO containers
// and need a reachable Docker daemon:
//
//	go test -tags integration ./internal/file -run Integration
package file_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bijay-develops/single-file-uploader/internal/config"
	"github.com/bijay-develops/single-file-uploader/internal/file"
	"github.com/bijay-develops/single-file-uploader/internal/presigned"
	"github.com/bijay-develops/single-file-uploader/internal/storage"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T) *dockertest.Pool {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = 2 * time.Minute
	return pool
}

func run(t *testing.T, pool *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()
	resource, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	_ = resource.Expire(300)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	return resource
}

// exerciseStore runs the Store contract against a live backend.
func exerciseStore(t *testing.T, store file.Store) {
	ctx := context.Background()
	service := file.NewService(store)

	names, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	first, err := service.Save(ctx, "a.txt", strings.NewReader("alpha"), 5, "text/plain")
	require.NoError(t, err)
	second, err := service.Save(ctx, "b.txt", strings.NewReader("bravo"), 5, "text/plain")
	require.NoError(t, err)

	names, err = service.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first.Name, second.Name}, names)

	_, err = store.Put(ctx, first.Name, strings.NewReader("again"), 5, "")
	assert.ErrorIs(t, err, file.ErrFileExists)

	meta, content, err := service.Open(ctx, first.Name)
	require.NoError(t, err)
	data, err := io.ReadAll(content)
	require.NoError(t, content.Close())
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
	assert.EqualValues(t, 5, meta.Size)

	require.NoError(t, service.Delete(ctx, first.Name))
	assert.ErrorIs(t, service.Delete(ctx, first.Name), file.ErrFileNotFound)

	_, err = service.Stat(ctx, first.Name)
	assert.ErrorIs(t, err, file.ErrFileNotFound)
	require.NoError(t, store.Ping(ctx))
}

func TestIntegrationPostgresStore(t *testing.T) {
	pool := newPool(t)
	resource := run(t, pool, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15",
		Env: []string{
			"POSTGRES_USER=uploader",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=uploader",
		},
	})

	cfg := config.PostgresConfig{
		Host:     "localhost",
		User:     "uploader",
		Password: "secret",
		Database: "uploader",
		SSLMode:  "disable",
	}
	_, err := fmt.Sscanf(resource.GetPort("5432/tcp"), "%d", &cfg.Port)
	require.NoError(t, err)

	require.NoError(t, pool.Retry(func() error {
		return storage.Migrate(cfg.DSN())
	}))

	dbPool, err := storage.NewPostgresPool(context.Background(), cfg)
	require.NoError(t, err)
	defer dbPool.Close()

	exerciseStore(t, file.NewPostgresStore(dbPool))
}

func TestIntegrationMinIOStore(t *testing.T) {
	pool := newPool(t)
	resource := run(t, pool, &dockertest.RunOptions{
		Repository: "minio/minio",
		Tag:        "RELEASE.2024-01-31T20-20-33Z",
		Cmd:        []string{"server", "/data"},
		Env: []string{
			"MINIO_ROOT_USER=minio",
			"MINIO_ROOT_PASSWORD=minio-secret",
		},
	})

	cfg := config.MinIOConfig{
		Endpoint:        "localhost:" + resource.GetPort("9000/tcp"),
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		Bucket:          "filestorage",
		Prefix:          "uploads",
	}

	client, err := storage.NewMinIOClient(cfg)
	require.NoError(t, err)
	require.NoError(t, pool.Retry(func() error {
		return storage.EnsureBucket(context.Background(), client, cfg.Bucket, cfg.Region)
	}))

	store := file.NewMinIOStore(client, cfg.Bucket, cfg.Prefix)
	exerciseStore(t, store)

	ctx := context.Background()
	stored, err := file.NewService(store).Save(ctx, "link.txt", strings.NewReader("linked"), 6, "text/plain")
	require.NoError(t, err)

	linker := presigned.NewService(client, cfg.Bucket, store.ObjectName, time.Minute)
	url, err := linker.PresignedGetURL(ctx, stored.Name)
	require.NoError(t, err)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "linked", string(body))
}
