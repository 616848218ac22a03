package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
)

// MailboxAccountStore persists linked mailbox accounts
type MailboxAccountStore interface {
	UpsertAccount(ctx context.Context, account *models.MailboxAccount) error
	// GetAccount returns nil, nil when the account is not linked
	GetAccount(ctx context.Context, userID, gmailEmail string) (*models.MailboxAccount, error)
	ListAccounts(ctx context.Context) ([]*models.MailboxAccount, error)
}

// MailboxSession is an authorized connection to one provider mailbox
type MailboxSession struct {
	Email        string
	RefreshToken string
	Reader       MailboxReader
}

// MailboxConnector is the OAuth broker plus provider client factory
type MailboxConnector interface {
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for a session
	Exchange(ctx context.Context, code string) (*MailboxSession, error)
	// Resume opens a session from a stored refresh token
	Resume(ctx context.Context, refreshToken string) (*MailboxSession, error)
}

// MailboxService links mailboxes and runs email ingestion for them
type MailboxService struct {
	accounts  MailboxAccountStore
	connector MailboxConnector
	ingestion *IngestionService
	fetchMax  int64
	linkMax   int64
	logger    *logger.Logger
}

// NewMailboxService creates a new MailboxService
func NewMailboxService(accounts MailboxAccountStore, connector MailboxConnector, ingestion *IngestionService, fetchMax, linkMax int64, log *logger.Logger) *MailboxService {
	if fetchMax <= 0 {
		fetchMax = 10
	}
	if linkMax <= 0 {
		linkMax = 2
	}
	return &MailboxService{
		accounts:  accounts,
		connector: connector,
		ingestion: ingestion,
		fetchMax:  fetchMax,
		linkMax:   linkMax,
		logger:    log.WithComponent("mailbox"),
	}
}

// ConsentURL returns the provider consent page carrying state
func (s *MailboxService) ConsentURL(state string) string {
	return s.connector.AuthCodeURL(state)
}

// LinkAccount completes the OAuth callback: exchanges code, records the
// account and ingests the newest messages. A failed exchange processes nothing.
func (s *MailboxService) LinkAccount(ctx context.Context, userID, code string) (*models.MailboxAccount, *models.IngestSummary, error) {
	session, err := s.connector.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrOAuthExchange, err)
	}

	account := &models.MailboxAccount{
		UserID:       userID,
		GmailEmail:   session.Email,
		RefreshToken: session.RefreshToken,
		ConnectedAt:  time.Now().UTC(),
	}
	if err := s.accounts.UpsertAccount(ctx, account); err != nil {
		return nil, nil, fmt.Errorf("failed to save mailbox account: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("gmail_email", session.Email).Msg("mailbox linked")

	summary, err := s.ingestion.IngestMailbox(ctx, userID, session.Email, session.Reader, s.linkMax)
	return account, summary, err
}

// FetchLatest refreshes the stored credential and ingests the newest messages
func (s *MailboxService) FetchLatest(ctx context.Context, userID, gmailEmail string) (*models.IngestSummary, error) {
	account, err := s.accounts.GetAccount(ctx, userID, gmailEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load mailbox account: %w", err)
	}
	if account == nil || account.RefreshToken == "" {
		return nil, ErrAccountNotLinked
	}

	session, err := s.connector.Resume(ctx, account.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}

	return s.ingestion.IngestMailbox(ctx, userID, account.GmailEmail, session.Reader, s.fetchMax)
}

// SyncAll runs FetchLatest for every linked account. One account's failure
// never stops the others; failures are combined in the returned error.
func (s *MailboxService) SyncAll(ctx context.Context) (int, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list mailbox accounts: %w", err)
	}

	var (
		errs   error
		stored int
	)
	for _, account := range accounts {
		if ctx.Err() != nil {
			return stored, multierr.Append(errs, ctx.Err())
		}
		summary, err := s.FetchLatest(ctx, account.UserID, account.GmailEmail)
		if summary != nil {
			stored += summary.Stored
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", account.UserID).Str("gmail_email", account.GmailEmail).Msg("mailbox sync failed")
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", account.GmailEmail, err))
		}
	}
	return stored, errs
}
