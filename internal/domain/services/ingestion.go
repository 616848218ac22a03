package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
	"aegis-secure/pkg/metrics"
)

// EmailStore persists mailbox messages
type EmailStore interface {
	ExistsEmail(ctx context.Context, userID, gmailID string) (bool, error)
	UpsertEmail(ctx context.Context, msg *models.EmailMessage) error
}

// SMSStore persists device SMS records
type SMSStore interface {
	ExistsSMS(ctx context.Context, userID, address string, dateMs int64) (bool, error)
	InsertSMS(ctx context.Context, msg *models.SMSMessage) error
}

// MailboxReader lists and fetches provider message documents for one account
type MailboxReader interface {
	ListMessageIDs(ctx context.Context, maxResults int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (*models.ProviderMessage, error)
}

// IngestionService drives each message through dedup, classification,
// notification and persistence. Messages in a batch are processed in order
// and one message's failure never stops the rest.
type IngestionService struct {
	emails     EmailStore
	sms        SMSStore
	dedup      *Deduplicator
	classifier RiskClassifier
	notifier   *RiskNotificationService
	colors     *SenderColorResolver
	logger     *logger.Logger
	now        func() time.Time
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(
	emails EmailStore,
	sms SMSStore,
	dedup *Deduplicator,
	classifier RiskClassifier,
	notifier *RiskNotificationService,
	colors *SenderColorResolver,
	log *logger.Logger,
) *IngestionService {
	return &IngestionService{
		emails:     emails,
		sms:        sms,
		dedup:      dedup,
		classifier: classifier,
		notifier:   notifier,
		colors:     colors,
		logger:     log.WithComponent("ingestion"),
		now:        time.Now,
	}
}

// IngestMailbox pulls up to maxResults of the newest messages from reader and
// ingests the ones not seen before. A listing failure rejects the whole request.
// Per-message storage failures are combined into the returned error; a message
// the provider fails to return is counted as failed without an error.
func (s *IngestionService) IngestMailbox(ctx context.Context, userID, gmailEmail string, reader MailboxReader, maxResults int64) (*models.IngestSummary, error) {
	log := s.logger.WithUserID(userID).WithChannel(string(models.ChannelEmail))

	ids, err := reader.ListMessageIDs(ctx, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	summary := &models.IngestSummary{}
	var errs error

	for _, id := range ids {
		if id == "" {
			continue
		}
		result, err := s.ingestEmail(ctx, userID, gmailEmail, id, reader)
		summary.Add(result)
		metrics.MessagesIngested.WithLabelValues(string(models.ChannelEmail), string(result.Outcome)).Inc()
		if err != nil {
			log.Error().Err(err).Str("gmail_id", id).Msg("failed to ingest message")
			errs = multierr.Append(errs, err)
		}
	}

	log.Info().
		Str("gmail_email", gmailEmail).
		Int("listed", len(ids)).
		Int("stored", summary.Stored).
		Int("duplicates", summary.Duplicates).
		Int("failed", summary.Failed).
		Msg("mailbox ingestion complete")

	return summary, errs
}

func (s *IngestionService) ingestEmail(ctx context.Context, userID, gmailEmail, gmailID string, reader MailboxReader) (*models.IngestResult, error) {
	key := EmailKey(userID, gmailID)
	result := &models.IngestResult{Key: key}

	dup, err := s.dedup.IsDuplicate(ctx, key, func(ctx context.Context) (bool, error) {
		return s.emails.ExistsEmail(ctx, userID, gmailID)
	})
	if err != nil {
		return failed(result, err)
	}
	if dup {
		result.Outcome = models.OutcomeDuplicate
		return result, nil
	}

	doc, err := reader.GetMessage(ctx, gmailID)
	if err != nil {
		// provider failure for one document: skip it, the batch continues
		s.logger.Warn().Err(err).Str("user_id", userID).Str("gmail_id", gmailID).Msg("failed to fetch message")
		_, _ = failed(result, err)
		return result, nil
	}

	fromHeader := doc.Header("From")
	sender := ParseSender(fromHeader)
	body := ExtractBody(doc.Payload)

	timestamp := doc.InternalDate
	if timestamp <= 0 {
		timestamp = s.now().UnixMilli()
	}

	risk := s.classifier.Classify(ctx, body)
	notice := &AlertNotice{UserID: userID, Channel: models.ChannelEmail, Sender: sender, Body: body, Risk: risk}
	result.Risk = risk
	result.Notified = s.notifier.NotifyRisk(ctx, notice).Attempted

	msg := &models.EmailMessage{
		ID:             uuid.New(),
		GmailID:        gmailID,
		GmailEmail:     gmailEmail,
		UserID:         userID,
		Subject:        doc.Header("Subject"),
		FromHeader:     fromHeader,
		FromEmail:      sender,
		CharColor:      s.colors.Resolve(ctx, sender),
		Snippet:        doc.Snippet,
		Body:           body,
		TimestampMs:    timestamp,
		SavedAt:        s.now().UTC(),
		RiskAssessment: risk,
	}

	if err := s.emails.UpsertEmail(ctx, msg); err != nil {
		return failed(result, fmt.Errorf("failed to store message %s: %w", gmailID, err))
	}

	s.dedup.MarkSeen(ctx, key)
	s.notifier.AnnounceStored(ctx, notice)
	result.Outcome = models.OutcomeStored
	return result, nil
}

// IngestSMSBatch ingests device SMS records in submission order
func (s *IngestionService) IngestSMSBatch(ctx context.Context, userID string, batch []*models.RawSMS) (*models.IngestSummary, error) {
	summary := &models.IngestSummary{}
	var errs error

	for _, raw := range batch {
		result, err := s.IngestSMS(ctx, userID, raw)
		summary.Add(result)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("received", len(batch)).
		Int("stored", summary.Stored).
		Int("duplicates", summary.Duplicates).
		Int("failed", summary.Failed).
		Msg("sms batch ingestion complete")

	return summary, errs
}

// IngestSMS ingests one device SMS record
func (s *IngestionService) IngestSMS(ctx context.Context, userID string, raw *models.RawSMS) (*models.IngestResult, error) {
	key := SMSKey(userID, raw.Address, raw.DateMs)
	result, err := s.ingestSMS(ctx, userID, key, raw)
	metrics.MessagesIngested.WithLabelValues(string(models.ChannelSMS), string(result.Outcome)).Inc()
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("key", key).Msg("failed to ingest sms")
	}
	return result, err
}

func (s *IngestionService) ingestSMS(ctx context.Context, userID, key string, raw *models.RawSMS) (*models.IngestResult, error) {
	result := &models.IngestResult{Key: key}

	dup, err := s.dedup.IsDuplicate(ctx, key, func(ctx context.Context) (bool, error) {
		return s.sms.ExistsSMS(ctx, userID, raw.Address, raw.DateMs)
	})
	if err != nil {
		return failed(result, err)
	}
	if dup {
		result.Outcome = models.OutcomeDuplicate
		return result, nil
	}

	risk := s.classifier.Classify(ctx, raw.Body)
	notice := &AlertNotice{UserID: userID, Channel: models.ChannelSMS, Sender: raw.Address, Body: raw.Body, Risk: risk}
	result.Risk = risk
	result.Notified = s.notifier.NotifyRisk(ctx, notice).Attempted

	msg := &models.SMSMessage{
		ID:             uuid.New(),
		UserID:         userID,
		Address:        raw.Address,
		Body:           raw.Body,
		DateMs:         raw.DateMs,
		Type:           raw.Type,
		CharColor:      s.colors.Resolve(ctx, raw.Address),
		SavedAt:        s.now().UTC(),
		RiskAssessment: risk,
	}
	if msg.Type == "" {
		msg.Type = "inbox"
	}

	if err := s.sms.InsertSMS(ctx, msg); err != nil {
		return failed(result, fmt.Errorf("failed to store sms: %w", err))
	}

	s.dedup.MarkSeen(ctx, key)
	s.notifier.AnnounceStored(ctx, notice)
	result.Outcome = models.OutcomeStored
	return result, nil
}

func failed(result *models.IngestResult, err error) (*models.IngestResult, error) {
	result.Outcome = models.OutcomeFailed
	result.Error = err.Error()
	return result, err
}
