package core

import "time"

type Target struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	DisplayName   string     `json:"displayName"`
	AddedAt       time.Time  `json:"addedAt"`
	LastCheckedAt *time.Time `json:"lastCheckedAt"`
}

type Strategy string

const (
	StrategyMobile  Strategy = "mobile"
	StrategyDesktop Strategy = "desktop"
)

// Settings are the user-editable options stored next to the targets.
type Settings struct {
	PageSpeedAPIKey    string   `json:"pageSpeedApiKey,omitempty"`
	Strategy           Strategy `json:"strategy"`
	AutoRefreshMinutes int      `json:"autoRefreshMinutes"`
	AlertsEnabled      bool     `json:"alertsEnabled"`
	WebhookURL         string   `json:"webhookUrl,omitempty"`
}

// DefaultSettings is returned when nothing has been saved yet.
func DefaultSettings() Settings {
	return Settings{
		Strategy: StrategyMobile,
	}
}
