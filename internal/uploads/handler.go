package uploads

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/pkg/response"
	"github.com/eventdesk/backend/pkg/storage"
)

// PresignRequest is the body for POST /uploads/presign.
type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// Handler issues presigned upload URLs for intake attachments. The
// client PUTs the file to S3 directly and references the returned
// file_url in its chat message attachment metadata.
type Handler struct {
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an uploads handler.
func NewHandler(s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{s3: s3, logger: logger}
}

// Presign handles POST /uploads/presign.
func (h *Handler) Presign(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "attachment storage is not configured")
		return
	}
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidateAttachmentType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	// Random prefix keeps uploads from clobbering each other.
	key := storage.AttachmentKey(userID.String(), fmt.Sprintf("%s-%s", uuid.New().String()[:8], req.Filename))

	uploadURL, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, req.ContentType)
	if err != nil {
		h.logger.Error("presign upload", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to create upload URL")
		return
	}
	response.OK(c, gin.H{
		"upload_url":   uploadURL,
		"file_url":     h.s3.PublicURL(key),
		"key":          key,
		"content_type": req.ContentType,
		"expires_at":   time.Now().Add(h.s3.PresignExpiry()),
	})
}

// Upload handles POST /uploads: a multipart fallback for clients that
// cannot PUT to S3 directly. The server streams the file through.
func (h *Handler) Upload(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "attachment storage is not configured")
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file field required")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxAttachmentSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateAttachmentType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	key := storage.AttachmentKey(userID.String(), fmt.Sprintf("%s-%s", uuid.New().String()[:8], header.Filename))

	fileURL, err := h.s3.Upload(c.Request.Context(), key, contentType, file)
	if err != nil {
		h.logger.Error("upload attachment", zap.Error(err), zap.String("key", key))
		response.Internal(c, "upload failed")
		return
	}
	response.Created(c, gin.H{"file_url": fileURL, "key": key, "content_type": contentType})
}

// Download handles GET /uploads/download?key=... (admin only): a
// presigned GET for reviewing archived attachments when the bucket is
// private.
func (h *Handler) Download(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "attachment storage is not configured")
		return
	}
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, "key query parameter required")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("presign download", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to create download URL")
		return
	}
	response.OK(c, gin.H{
		"download_url": url,
		"expires_at":   time.Now().Add(h.s3.PresignExpiry()),
	})
}
