package services

import (
	"context"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
	"aegis-secure/pkg/metrics"
)

// HighRiskThreshold is the minimum score that notifies "high_only" users
const HighRiskThreshold = 75.0

// ProfileStore looks up notification profiles. A nil profile with a nil
// error means the user has none.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.NotificationProfile, error)
}

// ResolvePreference returns the effective preference; missing or unknown values resolve to "all"
func ResolvePreference(profile *models.NotificationProfile) models.NotificationPreference {
	if profile == nil || !profile.Preference.Valid() {
		return models.PreferenceAll
	}
	return profile.Preference
}

// ShouldNotifyFor applies the threshold rule for a resolved preference
func ShouldNotifyFor(pref models.NotificationPreference, score float64) bool {
	if pref == models.PreferenceHighOnly {
		return score >= HighRiskThreshold
	}
	return true
}

// NotificationPolicy decides per message whether a user is alerted
type NotificationPolicy struct {
	profiles ProfileStore
	logger   *logger.Logger
}

// NewNotificationPolicy creates a NotificationPolicy
func NewNotificationPolicy(profiles ProfileStore, log *logger.Logger) *NotificationPolicy {
	return &NotificationPolicy{
		profiles: profiles,
		logger:   log.WithComponent("notification-policy"),
	}
}

// Decide returns the user's profile (possibly nil) and whether to notify for score.
// A profile lookup failure is treated as a missing profile.
func (p *NotificationPolicy) Decide(ctx context.Context, userID string, score float64) (*models.NotificationProfile, bool) {
	profile, err := p.profiles.GetProfile(ctx, userID)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("profile lookup failed, using default preference")
		profile = nil
	}

	notify := ShouldNotifyFor(ResolvePreference(profile), score)
	if !notify {
		metrics.NotificationsSuppressed.Inc()
	}
	return profile, notify
}

// ShouldNotify reports whether userID is alerted for a message with score
func (p *NotificationPolicy) ShouldNotify(ctx context.Context, userID string, score float64) bool {
	_, notify := p.Decide(ctx, userID, score)
	return notify
}
