// Package auth identifies who is playing.
//
// Signed-in players come through Discord OAuth and carry a JWT session in
// the "token" HttpOnly cookie. Everyone else is a guest identified by a
// random "player_id" cookie. Both resolve to a model.Player, which is all
// the round logic ever sees.
//
// SESSION FLOW:
//  1. /auth/discord/login redirects to Discord with a random state cookie
//  2. Discord calls back /auth/discord/callback with a code
//  3. The server exchanges the code for the Discord profile and upserts the user
//  4. A JWT with sub=userID is written to the "token" cookie
//  5. Middleware validates the cookie on later requests
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "heardle"

// DefaultTokenTTL is the session length when none is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenService signs and verifies session tokens with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A non-positive ttl selects
// DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns how long issued tokens stay valid. The session cookie uses
// the same lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// ErrTokenExpired is returned by Validate for a well-formed token past its
// expiry, so callers can tell a stale session from a forged one.
var ErrTokenExpired = errors.New("auth: token expired")

// Generate issues a token for userID with the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token that expires after d. Tests use a
// negative d to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
	}).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer and expiry and returns the userID
// stored in the subject claim.
//
// Only HS256 is accepted.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &rc, s.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("auth: invalid token: %w", err)
	case rc.Subject == "":
		return "", errors.New("auth: token has no subject")
	}
	return rc.Subject, nil
}

func (s *TokenService) key(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unexpected signing method %v", token.Header["alg"])
	}
	return s.secret, nil
}
