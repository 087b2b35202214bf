package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokensDisabled is returned when bearer tokens were never configured.
var ErrTokensDisabled = errors.New("auth: bearer tokens are not configured")

// Claims is the bearer token payload. Subject carries the user ID. Role is
// informational; authorization always uses the freshly loaded account.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type tokenSigner struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// EnableBearerTokens configures HS256 bearer tokens.
func (sm *SessionManager) EnableBearerTokens(secret string, ttl time.Duration, issuer string) error {
	if len(secret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	sm.tokens = &tokenSigner{secret: []byte(secret), ttl: ttl, issuer: issuer}
	return nil
}

// IssueToken signs a token for u and returns it with its expiry.
func (sm *SessionManager) IssueToken(u *SessionUser) (string, time.Time, error) {
	if sm.tokens == nil {
		return "", time.Time{}, ErrTokensDisabled
	}
	now := time.Now()
	exp := now.Add(sm.tokens.ttl)
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    sm.tokens.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.tokens.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken verifies signature, algorithm, issuer and expiry.
func (sm *SessionManager) ParseToken(raw string) (*Claims, error) {
	if sm.tokens == nil {
		return nil, ErrTokensDisabled
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if sm.tokens.issuer != "" {
		opts = append(opts, jwt.WithIssuer(sm.tokens.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return sm.tokens.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}
	return &claims, nil
}
