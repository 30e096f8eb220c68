package core

import (
	"encoding/json"
	"fmt"
)

// Severity is totally ordered: Low < Medium < High.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DiagnosisItem is a human-readable issue derived from one snapshot.
type DiagnosisItem struct {
	Severity        Severity `json:"severity"`
	Issue           string   `json:"issue"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
	IsOpportunity   bool     `json:"isOpportunity"`
}

// DegradationEvent records a metric that regressed between two consecutive
// snapshots. It is derived, never stored.
type DegradationEvent struct {
	Metric        Metric  `json:"metric"`
	PreviousValue float64 `json:"previousValue"`
	NewValue      float64 `json:"newValue"`
	ThresholdPoor float64 `json:"thresholdPoor"`
}
