package submissions

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/pkg/response"
)

// Handler exposes the submissions archive to admins.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a submissions handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /submissions?event=<name> (admin only).
func (h *Handler) List(c *gin.Context) {
	eventName := c.Query("event")
	if eventName == "" {
		response.BadRequest(c, "event query parameter required")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventName)
	if err != nil {
		h.logger.Error("list submissions", zap.Error(err), zap.String("event", eventName))
		response.Internal(c, "failed to list submissions")
		return
	}
	count, err := h.repo.CountByEvent(c.Request.Context(), eventName)
	if err != nil {
		response.Internal(c, "failed to count submissions")
		return
	}
	response.OK(c, gin.H{"total": count, "submissions": list})
}
