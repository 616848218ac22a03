package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	svc, err := NewTokenService("secret", "aegis", time.Hour)
	require.NoError(t, err)

	token, err := svc.IssueSession("user-1")
	require.NoError(t, err)

	userID, err := svc.ValidateSession(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestStateIsNotASession(t *testing.T) {
	svc, err := NewTokenService("secret", "aegis", time.Hour)
	require.NoError(t, err)

	state, err := svc.IssueState("user-1")
	require.NoError(t, err)

	_, err = svc.ValidateSession(state)
	require.ErrorIs(t, err, ErrInvalidToken)

	userID, err := svc.ValidateState(state)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestExpiredAndForeignTokensRejected(t *testing.T) {
	svc, err := NewTokenService("secret", "aegis", time.Minute)
	require.NoError(t, err)

	token, err := svc.IssueSession("user-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateSession(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenService("other-secret", "aegis", time.Minute)
	require.NoError(t, err)
	foreign, err := other.IssueSession("user-1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateSession(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateSession("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService("", "aegis", time.Hour)
	require.Error(t, err)
}
