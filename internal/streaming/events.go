package streaming

import (
	"fmt"

	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/domain/services"
)

// subjectRoot prefixes every message event subject
const subjectRoot = "messages"

// originHeader carries the publishing instance so it can skip its own events
const originHeader = "Aegis-Origin"

// Subject returns the NATS subject for an event.
// Hierarchy: messages.<event_type>.<channel>, e.g. messages.risk_alert.sms
func Subject(event *services.MessageEvent) string {
	channel := string(event.Channel)
	if channel == "" {
		channel = "unknown"
	}
	return fmt.Sprintf("%s.%s.%s", subjectRoot, event.Type, channel)
}

// Subscription narrows the events a live client receives
type Subscription struct {
	// Filter by channel (empty = all)
	Channels []models.Channel `json:"channels,omitempty"`

	// Drop events scored below this value
	MinScore float64 `json:"min_score,omitempty"`

	// Only deliver risk_alert events
	AlertsOnly bool `json:"alerts_only,omitempty"`
}

// Matches checks if an event passes the subscription filters
func (s *Subscription) Matches(event *services.MessageEvent) bool {
	if s == nil {
		return true
	}
	if s.AlertsOnly && event.Type != services.EventRiskAlert {
		return false
	}
	if event.SpamScore < s.MinScore {
		return false
	}
	if len(s.Channels) > 0 {
		for _, c := range s.Channels {
			if c == event.Channel {
				return true
			}
		}
		return false
	}
	return true
}
