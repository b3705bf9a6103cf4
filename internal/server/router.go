package server

import (
	"github.com/bijay-develops/single-file-uploader/internal/config"
	"github.com/bijay-develops/single-file-uploader/internal/file"
	"github.com/bijay-develops/single-file-uploader/internal/logger"
	"github.com/bijay-develops/single-file-uploader/internal/metrics"
	"github.com/bijay-develops/single-file-uploader/internal/ratelimit"
	"github.com/bijay-develops/single-file-uploader/internal/web"
	"github.com/gin-gonic/gin"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	FileService *file.Service
	// Linker is optional; set it to redirect downloads to presigned URLs.
	Linker file.DownloadLinker
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	router := gin.New()
	router.MaxMultipartMemory = deps.Config.Server.MaxMultipartMemory
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)

	metrics.InitMetrics()
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if err := web.Register(router); err != nil {
		return nil, err
	}

	opts := file.RouteOptions{Linker: deps.Linker}
	if qps := deps.Config.RateLimit.UploadsPerSecond; qps > 0 {
		limiter := ratelimit.NewRateLimiter(qps)
		opts.UploadMiddleware = append(opts.UploadMiddleware, limiter.Middleware("Too many uploads."))
	}
	file.RegisterRoutes(&router.RouterGroup, deps.FileService, opts)

	return router, nil
}
