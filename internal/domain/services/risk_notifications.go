package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
)

// AlertTitle is the push title for every risk alert
const AlertTitle = "New Risk Alert"

// Message event types
const (
	EventMessageStored = "message_stored"
	EventRiskAlert     = "risk_alert"
)

// MessageEventPublisher publishes pipeline events to the event bus
type MessageEventPublisher interface {
	PublishMessageEvent(ctx context.Context, event *MessageEvent) error
}

// MessageEvent is emitted when a message is stored or an alert is dispatched
type MessageEvent struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	Channel       models.Channel  `json:"channel"`
	Sender        string          `json:"sender"`
	Preview       string          `json:"preview"`
	SpamScore     float64         `json:"spam_score"`
	FinalDecision string          `json:"final_decision,omitempty"`
	Push          *DispatchResult `json:"push,omitempty"`
}

// AlertNotice is the message summary used to build an alert
type AlertNotice struct {
	UserID  string
	Channel models.Channel
	Sender  string
	Body    string
	Risk    models.RiskAssessment
}

// NotifyOutcome reports what the notification step did
type NotifyOutcome struct {
	Attempted bool
	Result    DispatchResult
}

// RiskNotificationService decides, dispatches and announces risk alerts
type RiskNotificationService struct {
	policy     *NotificationPolicy
	dispatcher *PushDispatcher
	publisher  MessageEventPublisher
	logger     *logger.Logger
}

// NewRiskNotificationService creates a new notification service; publisher may be nil
func NewRiskNotificationService(policy *NotificationPolicy, dispatcher *PushDispatcher, publisher MessageEventPublisher, log *logger.Logger) *RiskNotificationService {
	return &RiskNotificationService{
		policy:     policy,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     log.WithComponent("risk-notifications"),
	}
}

// AlertContent builds the push title, body and metadata for a message
func AlertContent(n *AlertNotice) (string, string, map[string]any) {
	body := n.Sender + " • Risk Score: " + formatScore(n.Risk.Score)
	data := map[string]any{
		"type":       string(n.Channel),
		"spam_score": n.Risk.Score,
		"sender":     n.Sender,
	}
	return AlertTitle, body, data
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// NotifyRisk alerts the user when their preference allows it. Failures are
// logged and never returned.
func (s *RiskNotificationService) NotifyRisk(ctx context.Context, n *AlertNotice) NotifyOutcome {
	profile, notify := s.policy.Decide(ctx, n.UserID, n.Risk.Score)
	if !notify {
		s.logger.Debug().Str("user_id", n.UserID).Float64("score", n.Risk.Score).Msg("notification suppressed by preference")
		return NotifyOutcome{}
	}

	var tokens []string
	if profile != nil {
		tokens = profile.PushTokens
	}

	title, body, data := AlertContent(n)
	result := s.dispatcher.Dispatch(ctx, tokens, title, body, data)

	if len(tokens) > 0 {
		s.logger.Info().
			Str("user_id", n.UserID).
			Str("channel", string(n.Channel)).
			Float64("score", n.Risk.Score).
			Int("success", result.SuccessCount).
			Int("failure", result.FailureCount).
			Msg("risk alert dispatched")

		s.publish(ctx, s.event(EventRiskAlert, n, &result))
	}

	return NotifyOutcome{Attempted: true, Result: result}
}

// AnnounceStored publishes a stored-message event
func (s *RiskNotificationService) AnnounceStored(ctx context.Context, n *AlertNotice) {
	s.publish(ctx, s.event(EventMessageStored, n, nil))
}

func (s *RiskNotificationService) event(kind string, n *AlertNotice, push *DispatchResult) *MessageEvent {
	return &MessageEvent{
		ID:            uuid.New().String(),
		Type:          kind,
		Timestamp:     time.Now().UTC(),
		UserID:        n.UserID,
		Channel:       n.Channel,
		Sender:        n.Sender,
		Preview:       truncateString(n.Body, 50),
		SpamScore:     n.Risk.Score,
		FinalDecision: n.Risk.FinalDecision,
		Push:          push,
	}
}

func (s *RiskNotificationService) publish(ctx context.Context, event *MessageEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMessageEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Str("user_id", event.UserID).Msg("failed to publish message event")
	}
}

func truncateString(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
