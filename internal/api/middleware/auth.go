package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "aegis-secure/pkg/errors"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// ContextKeyUserID is the context key for the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
)

// SessionValidator resolves a bearer token to a user ID
type SessionValidator interface {
	ValidateSession(token string) (string, error)
}

// BearerAuth returns middleware that requires a valid session token.
// Websocket clients that cannot set headers may pass ?access_token= instead.
func BearerAuth(sessions SessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				apperrors.Write(w, apperrors.ErrUnauthorized.WithMessage("missing or malformed authorization header"))
				return
			}

			userID, err := sessions.ValidateSession(token)
			if err != nil {
				apperrors.Write(w, apperrors.ErrUnauthorized.WithMessage("invalid session token").WithInternal(err))
				return
			}

			recordUser(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, true
	}
	return "", false
}

// WithUserID stores the authenticated user ID in ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// UserID returns the authenticated user ID from context
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyUserID).(string); ok {
		return id
	}
	return ""
}
