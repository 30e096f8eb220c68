package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leozw/vitals-guardian/internal/storage"
	"go.uber.org/zap"
)

type CreateTargetRequest struct {
	URL         string `json:"url" binding:"required"`
	DisplayName string `json:"displayName" binding:"max=255"`
}

type UpdateTargetRequest struct {
	DisplayName string `json:"displayName" binding:"required,min=1,max=255"`
}

func (h *Handler) ListTargets(c *gin.Context) {
	list := h.store.Targets(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"targets": list,
		"total":   len(list),
	})
}

func (h *Handler) CreateTarget(c *gin.Context) {
	var req CreateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := h.store.AddTarget(c.Request.Context(), req.URL, req.DisplayName)
	if errors.Is(err, storage.ErrDuplicateTarget) {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Target already tracked",
			"target": target,
		})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, target)
}

func (h *Handler) GetTarget(c *gin.Context) {
	target, err := h.store.Target(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

func (h *Handler) UpdateTarget(c *gin.Context) {
	var req UpdateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := h.store.UpdateTarget(c.Request.Context(), c.Param("id"), req.DisplayName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

func (h *Handler) DeleteTarget(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.RemoveTarget(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.ForgetTarget(id)

	h.logger.Info("Target deleted", zap.String("target_id", id))
	c.Status(http.StatusNoContent)
}
