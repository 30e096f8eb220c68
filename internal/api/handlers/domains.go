package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListDomains(c *gin.Context) {
	summaries := h.groups.Summaries(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"domains": summaries,
		"total":   len(summaries),
	})
}
