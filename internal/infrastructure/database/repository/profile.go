package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/infrastructure/database"
)

// ProfileRepository handles notification profile persistence
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile returns the user's profile, or nil if none exists
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.NotificationProfile, error) {
	query := `SELECT user_id, notification_pref, push_tokens FROM user_profiles WHERE user_id = $1`

	var (
		p    models.NotificationProfile
		pref string
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &pref, &p.PushTokens)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.Preference = models.NotificationPreference(pref)
	return &p, nil
}

// AddPushToken adds token to the user's token set, creating the profile if needed
func (r *ProfileRepository) AddPushToken(ctx context.Context, userID, token string) error {
	query := `
		INSERT INTO user_profiles (user_id, push_tokens)
		VALUES ($1, ARRAY[$2::TEXT])
		ON CONFLICT (user_id) DO UPDATE SET
			push_tokens = CASE
				WHEN $2 = ANY(user_profiles.push_tokens) THEN user_profiles.push_tokens
				ELSE array_append(user_profiles.push_tokens, $2)
			END,
			updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to add push token: %w", err)
	}
	return nil
}

// SetPreference stores the user's notification preference
func (r *ProfileRepository) SetPreference(ctx context.Context, userID string, pref models.NotificationPreference) error {
	query := `
		INSERT INTO user_profiles (user_id, notification_pref)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			notification_pref = EXCLUDED.notification_pref,
			updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, userID, string(pref)); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}
