package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leozw/vitals-guardian/internal/batch"
	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/diagnosis"
)

type MetricStatus struct {
	Metric    core.Metric     `json:"metric"`
	Value     *float64        `json:"value"`
	Status    core.Status     `json:"status"`
	Threshold *core.Threshold `json:"threshold,omitempty"`
	Unit      string          `json:"unit,omitempty"`
}

func (h *Handler) History(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.store.Target(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}

	history := h.store.All(ctx, id)
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit < len(history) {
		history = history[len(history)-limit:]
	}

	c.JSON(http.StatusOK, gin.H{
		"target_id": id,
		"history":   history,
		"count":     len(history),
	})
}

func (h *Handler) Latest(c *gin.Context) {
	snap, ok := h.latest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) Diagnosis(c *gin.Context) {
	snap, ok := h.latest(c)
	if !ok {
		return
	}
	items := diagnosis.Diagnose(*snap)
	c.JSON(http.StatusOK, gin.H{
		"timestamp":  snap.Timestamp,
		"items":      items,
		"high_count": diagnosis.CountHigh(items),
	})
}

func (h *Handler) Status(c *gin.Context) {
	snap, ok := h.latest(c)
	if !ok {
		return
	}

	out := make([]MetricStatus, 0, len(core.AllMetrics))
	for _, m := range core.AllMetrics {
		ms := MetricStatus{
			Metric: m,
			Value:  snap.Value(m),
			Status: core.Classify(m, snap.Value(m)),
			Unit:   m.Unit(),
		}
		if t, ok := core.ThresholdFor(m); ok {
			ms.Threshold = &t
		}
		out = append(out, ms)
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp": snap.Timestamp,
		"metrics":   out,
	})
}

func (h *Handler) RefreshTarget(c *gin.Context) {
	outcome, err := h.refresher.RefreshTarget(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isTargetError(err) {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) RefreshAll(c *gin.Context) {
	results := h.refresher.RefreshAll(c.Request.Context(), nil)
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
		"failed":  batch.Failed(results),
	})
}

// latest writes the error response itself when there is nothing to return.
func (h *Handler) latest(c *gin.Context) (*core.Snapshot, bool) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.store.Target(ctx, id); err != nil {
		h.respondError(c, err)
		return nil, false
	}

	snap := h.store.Latest(ctx, id)
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No snapshots recorded yet"})
		return nil, false
	}
	return snap, true
}
