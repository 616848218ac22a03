package handlers

import (
	"context"

	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/domain/services"
	"aegis-secure/internal/streaming"
	"aegis-secure/pkg/logger"
)

// EmailMessageStore lists stored mail for one user
type EmailMessageStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.EmailMessage, error)
}

// SMSMessageStore lists stored SMS for one user
type SMSMessageStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.SMSMessage, error)
}

// StateTokens signs and verifies the OAuth state parameter
type StateTokens interface {
	IssueState(userID string) (string, error)
	ValidateState(state string) (string, error)
}

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Gmail     *GmailHandler
	OAuth     *OAuthHandler
	SMS       *SMSHandler
	Dashboard *DashboardHandler
	Profile   *ProfileHandler
	Analysis  *AnalysisHandler
	Events    *EventsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Version    string
	Checks     map[string]Pinger
	Ingestion  *services.IngestionService
	Mailbox    *services.MailboxService
	History    *services.HistoryService
	Aggregator *services.RiskBucketAggregator
	Profiles   *services.ProfileService
	Classifier services.RiskClassifier
	Emails     EmailMessageStore
	SMS        SMSMessageStore
	States     StateTokens
	Hub        *streaming.WebSocketHub
	Logger     *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Checks, deps.Logger),
		Gmail:     NewGmailHandler(deps.Mailbox, deps.Emails, deps.History, deps.Logger),
		OAuth:     NewOAuthHandler(deps.Mailbox, deps.States, deps.Logger),
		SMS:       NewSMSHandler(deps.Ingestion, deps.SMS, deps.History, deps.Logger),
		Dashboard: NewDashboardHandler(deps.Aggregator, deps.Logger),
		Profile:   NewProfileHandler(deps.Profiles, deps.Logger),
		Analysis:  NewAnalysisHandler(deps.Classifier, deps.Logger),
		Events:    NewEventsHandler(deps.Hub),
	}
}
