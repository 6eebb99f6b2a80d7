package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/pkg/response"
)

// Handler exposes read access to the current event over HTTP.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Get handles GET /event. Returns the current event and whether it is
// still accepting applicants.
func (h *Handler) Get(c *gin.Context) {
	cfg, err := h.store.Load(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNoEvent) {
			response.NotFound(c, "no active events")
			return
		}
		h.logger.Error("load event", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	open := Gate(cfg, time.Now()) == nil
	response.OK(c, gin.H{"event": cfg, "open": open})
}
