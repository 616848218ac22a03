package services

import "errors"

var (
	// ErrAccountNotLinked means the user has no linked mailbox for the address
	ErrAccountNotLinked = errors.New("mailbox account not linked")
	// ErrTokenRefresh means the stored credential could not be exchanged for an access token
	ErrTokenRefresh = errors.New("failed to refresh access token")
	// ErrOAuthExchange means the authorization code was rejected
	ErrOAuthExchange = errors.New("failed to exchange authorization code")
	// ErrInvalidPreference means a preference outside {all, high_only}
	ErrInvalidPreference = errors.New("invalid notification preference")

	// ErrMissingPushToken is returned when a device registers an empty token
	ErrMissingPushToken = errors.New("push token is required")
)
