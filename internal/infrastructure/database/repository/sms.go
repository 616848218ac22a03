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

// SMSRepository handles device SMS persistence
type SMSRepository struct {
	db database.DBTX
}

// NewSMSRepository creates a new SMS repository
func NewSMSRepository(db database.DBTX) *SMSRepository {
	return &SMSRepository{db: db}
}

// ExistsSMS reports whether the natural key (user, address, date) is stored
func (r *SMSRepository) ExistsSMS(ctx context.Context, userID, address string, dateMs int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM sms_messages WHERE user_id = $1 AND address = $2 AND date_ms = $3)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, address, dateMs).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check sms existence: %w", err)
	}
	return exists, nil
}

// InsertSMS stores a new SMS record
func (r *SMSRepository) InsertSMS(ctx context.Context, m *models.SMSMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	query := `
		INSERT INTO sms_messages (
			id, user_id, address, body, date_ms, type, char_color,
			spam_score, confidence, reasoning, highlighted_text, final_decision, suggestion,
			saved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		m.ID, m.UserID, m.Address, m.Body, m.DateMs, m.Type, m.CharColor,
		m.Score, floatPtrToFloat8(m.Confidence), m.Reasoning, m.HighlightedText, m.FinalDecision, m.Suggestion,
		timeToTimestamptz(m.SavedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sms: %w", err)
	}
	return nil
}

// ListByUser returns the user's SMS, newest first
func (r *SMSRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.SMSMessage, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT id, user_id, address, body, date_ms, type, char_color,
			   spam_score, confidence, reasoning, highlighted_text, final_decision, suggestion,
			   saved_at
		FROM sms_messages
		WHERE user_id = $1
		ORDER BY date_ms DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sms: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.SMSMessage, 0)
	for rows.Next() {
		m, err := scanSMS(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sms: %w", err)
	}

	return messages, nil
}

// DeleteByUser removes all of the user's SMS
func (r *SMSRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sms_messages WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sms: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListRiskScores returns the user's stored scores, optionally within a window
func (r *SMSRepository) ListRiskScores(ctx context.Context, userID string, since *time.Time) ([]float64, error) {
	sinceMs, sinceTime := sinceBounds(since)

	query := `
		SELECT spam_score
		FROM sms_messages
		WHERE user_id = $1 AND (date_ms >= $2 OR saved_at >= $3)`

	return collectScores(ctx, r.db, query, userID, sinceMs, sinceTime)
}

func scanSMS(row pgx.Row) (*models.SMSMessage, error) {
	var (
		m          models.SMSMessage
		confidence pgtype.Float8
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.Address, &m.Body, &m.DateMs, &m.Type, &m.CharColor,
		&m.Score, &confidence, &m.Reasoning, &m.HighlightedText, &m.FinalDecision, &m.Suggestion,
		&m.SavedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sms: %w", err)
	}
	m.Confidence = float8ToFloatPtr(confidence)
	return &m, nil
}
