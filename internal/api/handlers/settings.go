package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leozw/vitals-guardian/internal/core"
	"go.uber.org/zap"
)

type SettingsRequest struct {
	PageSpeedAPIKey    string `json:"pageSpeedApiKey"`
	ClearAPIKey        bool   `json:"clearApiKey"`
	Strategy           string `json:"strategy" binding:"required,oneof=mobile desktop"`
	AutoRefreshMinutes int    `json:"autoRefreshMinutes" binding:"min=0,max=10080"`
	AlertsEnabled      bool   `json:"alertsEnabled"`
	WebhookURL         string `json:"webhookUrl" binding:"omitempty,url"`
}

// settingsView hides the API key.
type settingsView struct {
	core.Settings
	PageSpeedAPIKey string `json:"pageSpeedApiKey,omitempty"`
	HasAPIKey       bool   `json:"hasApiKey"`
}

func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(h.store.Settings(c.Request.Context())))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	settings := core.Settings{
		PageSpeedAPIKey:    req.PageSpeedAPIKey,
		Strategy:           core.Strategy(req.Strategy),
		AutoRefreshMinutes: req.AutoRefreshMinutes,
		AlertsEnabled:      req.AlertsEnabled,
		WebhookURL:         req.WebhookURL,
	}
	// an omitted key keeps the stored one unless the caller asks to clear it
	switch {
	case req.ClearAPIKey:
		settings.PageSpeedAPIKey = ""
	case settings.PageSpeedAPIKey == "":
		settings.PageSpeedAPIKey = h.store.Settings(ctx).PageSpeedAPIKey
	}
	h.store.SaveSettings(ctx, settings)

	h.logger.Info("Settings updated",
		zap.String("strategy", req.Strategy),
		zap.Int("auto_refresh_minutes", req.AutoRefreshMinutes),
	)
	c.JSON(http.StatusOK, viewOf(settings))
}

func viewOf(s core.Settings) settingsView {
	return settingsView{Settings: s, HasAPIKey: s.PageSpeedAPIKey != ""}
}
