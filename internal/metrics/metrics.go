package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delete outcomes reported by RecordDelete.
const (
	DeleteDeleted  = "deleted"
	DeleteNotFound = "not_found"
	DeleteError    = "error"
)

var (
	initOnce sync.Once

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filestore",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "filestore",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	uploads = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "filestore",
		Name:      "uploads_total",
		Help:      "Files stored through the upload endpoint.",
	})

	uploadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "filestore",
		Name:      "upload_bytes_total",
		Help:      "Bytes stored through the upload endpoint.",
	})

	deletes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filestore",
		Name:      "deletes_total",
		Help:      "Delete requests by outcome.",
	}, []string{"result"})
)

// InitMetrics registers collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, uploads, uploadBytes, deletes)
	})
}

// Middleware records request counts and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// RecordUpload counts one stored file of the given size.
func RecordUpload(size int64) {
	uploads.Inc()
	if size > 0 {
		uploadBytes.Add(float64(size))
	}
}

// RecordDelete counts one delete attempt by outcome.
func RecordDelete(result string) {
	deletes.WithLabelValues(result).Inc()
}
