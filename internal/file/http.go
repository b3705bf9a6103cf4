package file

import (
	"context"
	"errors"
	"net/http"

	"github.com/bijay-develops/single-file-uploader/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FormField is the multipart field carrying the uploaded file.
const FormField = "file"

// DownloadLinker hands out direct download URLs for stored files.
type DownloadLinker interface {
	PresignedGetURL(ctx context.Context, name string) (string, error)
}

// RouteOptions tunes the routes mounted by RegisterRoutes. Zero value is valid.
type RouteOptions struct {
	// UploadMiddleware runs before the upload handler, e.g. a rate limiter.
	UploadMiddleware []gin.HandlerFunc
	// Linker, when set, makes GET /uploads/:filename redirect instead of streaming.
	Linker DownloadLinker
}

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, opts RouteOptions) {
	handler := &httpHandler{service: service, linker: opts.Linker}

	upload := append([]gin.HandlerFunc{}, opts.UploadMiddleware...)
	upload = append(upload, handler.uploadFile)

	group.POST("/upload", upload...)
	group.GET("/uploads/:filename", handler.serveFile)
	group.HEAD("/uploads/:filename", handler.serveFile)
	group.GET("/view", handler.listFiles)
	group.DELETE("/delete/:filename", handler.deleteFile)
}

type httpHandler struct {
	service *Service
	linker  DownloadLinker
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile(FormField)
	if err != nil {
		// no file is not an error: nothing gets stored
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			c.Redirect(http.StatusFound, "/")
			return
		}
		logger.FromContext(c).Warn("parse upload", zap.Error(err))
		c.String(http.StatusBadRequest, "Invalid upload.")
		return
	}

	stored, err := h.service.Upload(c.Request.Context(), fileHeader)
	if err != nil {
		logger.FromContext(c).Error("store upload",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	logger.FromContext(c).Info("file uploaded",
		zap.String("name", stored.Name),
		zap.Int64("size", stored.Size))
	c.Redirect(http.StatusFound, "/")
}

func (h *httpHandler) serveFile(c *gin.Context) {
	name := c.Param("filename")

	if h.linker != nil {
		h.redirectToLink(c, name)
		return
	}

	meta, content, err := h.service.Open(c.Request.Context(), name)
	if err != nil {
		h.respondServeError(c, name, err)
		return
	}
	defer content.Close()

	http.ServeContent(c.Writer, c.Request, meta.Name, meta.CreatedAt, content)
}

func (h *httpHandler) redirectToLink(c *gin.Context, name string) {
	if _, err := h.service.Stat(c.Request.Context(), name); err != nil {
		h.respondServeError(c, name, err)
		return
	}
	url, err := h.linker.PresignedGetURL(c.Request.Context(), name)
	if err != nil {
		logger.FromContext(c).Error("presign download", zap.String("name", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *httpHandler) respondServeError(c *gin.Context, name string, err error) {
	if errors.Is(err, ErrFileNotFound) {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	logger.FromContext(c).Error("open stored file", zap.String("name", name), zap.Error(err))
	c.String(http.StatusInternalServerError, "Internal Server Error")
}

func (h *httpHandler) listFiles(c *gin.Context) {
	names, err := h.service.List(c.Request.Context())
	if err != nil {
		logger.FromContext(c).Error("read upload directory", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error reading the upload directory")
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": names})
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	name := c.Param("filename")

	if err := h.service.Delete(c.Request.Context(), name); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			c.String(http.StatusNotFound, "File not found.")
			return
		}
		logger.FromContext(c).Error("delete stored file", zap.String("name", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Error deleting the file")
		return
	}

	c.String(http.StatusOK, "File %s deleted successfully.", name)
}
