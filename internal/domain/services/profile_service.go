package services

import (
	"context"
	"fmt"
	"strings"

	"aegis-secure/internal/domain/models"
)

// ProfileRepository persists notification profiles
type ProfileRepository interface {
	ProfileStore
	// AddPushToken adds token to the user's set, creating the profile if needed
	AddPushToken(ctx context.Context, userID, token string) error
	SetPreference(ctx context.Context, userID string, pref models.NotificationPreference) error
}

// ProfileService manages push tokens and notification preferences
type ProfileService struct {
	repo ProfileRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// RegisterToken adds a device token; registering the same token twice is a no-op
func (s *ProfileService) RegisterToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingPushToken
	}
	return s.repo.AddPushToken(ctx, userID, token)
}

// SetPreference validates and stores the user's preference
func (s *ProfileService) SetPreference(ctx context.Context, userID string, pref models.NotificationPreference) error {
	if !pref.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPreference, pref)
	}
	return s.repo.SetPreference(ctx, userID, pref)
}

// Info returns the user's profile with the preference resolved
func (s *ProfileService) Info(ctx context.Context, userID string) (*models.NotificationProfile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &models.NotificationProfile{UserID: userID, PushTokens: []string{}}
	if profile != nil && profile.PushTokens != nil {
		out.PushTokens = profile.PushTokens
	}
	out.Preference = ResolvePreference(profile)
	return out, nil
}
