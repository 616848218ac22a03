package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultSessionTTL is the fallback validity of a session token
	DefaultSessionTTL = 12 * time.Hour
	// StateTTL bounds an OAuth round trip
	StateTTL = 10 * time.Minute

	audienceSession = "aegis-session"
	audienceState   = "aegis-oauth-state"
)

// ErrInvalidToken is returned for any token that fails validation
var ErrInvalidToken = errors.New("invalid token")

// Claims are the claims embedded in issued tokens
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenService issues and validates session tokens and signed OAuth state
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// IssueSession signs a bearer token for userID
func (s *TokenService) IssueSession(userID string) (string, error) {
	return s.issue(userID, audienceSession, s.ttl)
}

// ValidateSession returns the user id carried by a bearer token
func (s *TokenService) ValidateSession(token string) (string, error) {
	return s.validate(token, audienceSession)
}

// IssueState signs the OAuth state parameter binding the callback to userID
func (s *TokenService) IssueState(userID string) (string, error) {
	return s.issue(userID, audienceState, StateTTL)
}

// ValidateState returns the user id bound to an OAuth state parameter
func (s *TokenService) ValidateState(state string) (string, error) {
	return s.validate(state, audienceState)
}

func (s *TokenService) issue(userID, audience string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("jwt: user id is required")
	}

	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) validate(token, audience string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithAudience(audience),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", fmt.Errorf("%w: issuer", ErrInvalidToken)
	}
	if claims.UserID == "" || !slices.Contains(claims.Audience, audience) {
		return "", fmt.Errorf("%w: claims", ErrInvalidToken)
	}
	return claims.UserID, nil
}
