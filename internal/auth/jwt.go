// Package auth issues the handles relay clients use to address their
// sessions. With a secret configured they are signed JWTs; without one
// the raw session id is the handle.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for handles that fail verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the JWT claims of a session handle. The subject is the session id.
type Claims struct {
	Server string `json:"server,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokens signs and verifies session handles.
type SessionTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionTokens builds a token codec. An empty secret disables signing.
func NewSessionTokens(secret, issuer string, ttl time.Duration) *SessionTokens {
	return &SessionTokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether handles are signed.
func (t *SessionTokens) Enabled() bool {
	return t != nil && len(t.secret) > 0
}

// Issue returns the handle for a session.
func (t *SessionTokens) Issue(sessionID, server string) (string, error) {
	if !t.Enabled() {
		return sessionID, nil
	}
	now := t.now()
	claims := Claims{
		Server: server,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sessionID,
			Issuer:   t.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify returns the session id a handle refers to.
func (t *SessionTokens) Verify(handle string) (string, error) {
	if !t.Enabled() {
		if handle == "" {
			return "", ErrInvalidToken
		}
		return handle, nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := jwt.ParseWithClaims(handle, &Claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
