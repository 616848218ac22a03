package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/infrastructure/database"
)

// EmailRepository handles mailbox message persistence
type EmailRepository struct {
	db database.DBTX
}

// NewEmailRepository creates a new email repository
func NewEmailRepository(db database.DBTX) *EmailRepository {
	return &EmailRepository{db: db}
}

// ExistsEmail reports whether the user already has the provider message
func (r *EmailRepository) ExistsEmail(ctx context.Context, userID, gmailID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM email_messages WHERE user_id = $1 AND gmail_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, gmailID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// UpsertEmail inserts the message. A row already stored for (gmail_id, user_id)
// keeps its assessment; only a missing sender color is backfilled.
func (r *EmailRepository) UpsertEmail(ctx context.Context, m *models.EmailMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	query := `
		INSERT INTO email_messages (
			id, gmail_id, gmail_email, user_id, subject, from_header, from_email,
			char_color, snippet, body, timestamp_ms,
			spam_score, confidence, reasoning, highlighted_text, final_decision, suggestion,
			saved_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		ON CONFLICT (gmail_id, user_id) DO UPDATE SET
			char_color = COALESCE(NULLIF(email_messages.char_color, ''), EXCLUDED.char_color)`

	_, err := r.db.Exec(ctx, query,
		m.ID, m.GmailID, m.GmailEmail, m.UserID, m.Subject, m.FromHeader, m.FromEmail,
		m.CharColor, m.Snippet, m.Body, m.TimestampMs,
		m.Score, floatPtrToFloat8(m.Confidence), m.Reasoning, m.HighlightedText, m.FinalDecision, m.Suggestion,
		timeToTimestamptz(m.SavedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert email: %w", err)
	}
	return nil
}

// ListByUser returns the user's messages, newest first
func (r *EmailRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.EmailMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, gmail_id, gmail_email, user_id, subject, from_header, from_email,
			   char_color, snippet, body, timestamp_ms,
			   spam_score, confidence, reasoning, highlighted_text, final_decision, suggestion,
			   saved_at
		FROM email_messages
		WHERE user_id = $1
		ORDER BY timestamp_ms DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.EmailMessage, 0)
	for rows.Next() {
		m, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emails: %w", err)
	}

	return messages, nil
}

// DeleteByUser removes all of the user's messages
func (r *EmailRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM email_messages WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete emails: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListRiskScores returns the user's stored scores, optionally within a window
func (r *EmailRepository) ListRiskScores(ctx context.Context, userID string, since *time.Time) ([]float64, error) {
	sinceMs, sinceTime := sinceBounds(since)

	query := `
		SELECT spam_score
		FROM email_messages
		WHERE user_id = $1 AND (timestamp_ms >= $2 OR saved_at >= $3)`

	return collectScores(ctx, r.db, query, userID, sinceMs, sinceTime)
}

func scanEmail(row pgx.Row) (*models.EmailMessage, error) {
	var (
		m          models.EmailMessage
		confidence pgtype.Float8
	)
	err := row.Scan(
		&m.ID, &m.GmailID, &m.GmailEmail, &m.UserID, &m.Subject, &m.FromHeader, &m.FromEmail,
		&m.CharColor, &m.Snippet, &m.Body, &m.TimestampMs,
		&m.Score, &confidence, &m.Reasoning, &m.HighlightedText, &m.FinalDecision, &m.Suggestion,
		&m.SavedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan email: %w", err)
	}
	m.Confidence = float8ToFloatPtr(confidence)
	return &m, nil
}

func collectScores(ctx context.Context, db database.DBTX, query string, args ...any) ([]float64, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk scores: %w", err)
	}
	scores, err := pgx.CollectRows(rows, pgx.RowTo[float64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect risk scores: %w", err)
	}
	return scores, nil
}
