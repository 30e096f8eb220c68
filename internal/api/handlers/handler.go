package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leozw/vitals-guardian/internal/groups"
	"github.com/leozw/vitals-guardian/internal/metrics"
	"github.com/leozw/vitals-guardian/internal/scheduler"
	"github.com/leozw/vitals-guardian/internal/storage"
	"github.com/leozw/vitals-guardian/internal/targets"
	"go.uber.org/zap"
)

type Handler struct {
	store     *storage.Store
	refresher *scheduler.Refresher
	groups    *groups.Service
	metrics   *metrics.Collector
	logger    *zap.Logger
}

func NewHandler(store *storage.Store, refresher *scheduler.Refresher, groups *groups.Service, metrics *metrics.Collector, logger *zap.Logger) *Handler {
	return &Handler{
		store:     store,
		refresher: refresher,
		groups:    groups,
		metrics:   metrics,
		logger:    logger,
	}
}

// respondError maps package sentinels to status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
	case errors.Is(err, targets.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func isTargetError(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, targets.ErrInvalidURL)
}
