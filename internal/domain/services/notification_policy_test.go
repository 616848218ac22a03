package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
)

type memProfiles struct {
	profiles map[string]*models.NotificationProfile
	err      error
}

func (m *memProfiles) GetProfile(_ context.Context, userID string) (*models.NotificationProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profiles[userID], nil
}

func TestResolvePreference(t *testing.T) {
	require.Equal(t, models.PreferenceAll, ResolvePreference(nil))
	require.Equal(t, models.PreferenceAll, ResolvePreference(&models.NotificationProfile{}))
	require.Equal(t, models.PreferenceAll, ResolvePreference(&models.NotificationProfile{Preference: "sometimes"}))
	require.Equal(t, models.PreferenceHighOnly, ResolvePreference(&models.NotificationProfile{Preference: "high_only"}))
}

func TestShouldNotifyThresholdBoundary(t *testing.T) {
	store := &memProfiles{profiles: map[string]*models.NotificationProfile{
		"picky": {UserID: "picky", Preference: models.PreferenceHighOnly},
		"eager": {UserID: "eager", Preference: models.PreferenceAll},
	}}
	policy := NewNotificationPolicy(store, logger.NewNop())
	ctx := context.Background()

	require.False(t, policy.ShouldNotify(ctx, "picky", 74))
	require.False(t, policy.ShouldNotify(ctx, "picky", 74.99))
	require.True(t, policy.ShouldNotify(ctx, "picky", 75))
	require.True(t, policy.ShouldNotify(ctx, "picky", 100))

	for _, score := range []float64{0, 10, 74, 75, 100} {
		require.True(t, policy.ShouldNotify(ctx, "eager", score))
	}
}

func TestShouldNotifyMissingProfileDefaultsToAll(t *testing.T) {
	policy := NewNotificationPolicy(&memProfiles{profiles: map[string]*models.NotificationProfile{}}, logger.NewNop())
	require.True(t, policy.ShouldNotify(context.Background(), "ghost", 1))

	failing := NewNotificationPolicy(&memProfiles{err: errors.New("db down")}, logger.NewNop())
	profile, notify := failing.Decide(context.Background(), "u", 3)
	require.Nil(t, profile)
	require.True(t, notify)
}
