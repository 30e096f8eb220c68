package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leozw/vitals-guardian/internal/core"
)

type metricInfo struct {
	Metric         core.Metric    `json:"metric"`
	Unit           string         `json:"unit,omitempty"`
	HigherIsBetter bool           `json:"higherIsBetter"`
	Threshold      core.Threshold `json:"threshold"`
}

// Thresholds lists every metric with its classification bands.
func (h *Handler) Thresholds(c *gin.Context) {
	table := core.Thresholds()
	out := make([]metricInfo, 0, len(core.AllMetrics))
	for _, m := range core.AllMetrics {
		out = append(out, metricInfo{
			Metric:         m,
			Unit:           m.Unit(),
			HigherIsBetter: m.HigherIsBetter(),
			Threshold:      table[m],
		})
	}
	c.JSON(http.StatusOK, gin.H{"metrics": out})
}
