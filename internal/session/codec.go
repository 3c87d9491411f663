// Package session signs and verifies compact self-contained session tokens.
// A token is three base64url segments (header.payload.signature) with an
// HMAC-SHA256 signature and an embedded expiry; once signed it is never
// mutated, a refreshed session is a new token.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkalinins/dashvault/internal/authz"
	"github.com/mkalinins/dashvault/internal/common"
)

// Session holds the verified identity claims carried inside a token.
type Session struct {
	UserID    string
	Role      authz.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the wire payload: registered claims (sub, iat, exp) plus the
// role assigned at login.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Codec signs and verifies session tokens with a fixed secret and TTL.
// Verification is a pure function of (token, secret, current time); the
// codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl}
}

// TTL returns the configured token lifetime, used to bound the cookie age.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Sign issues a token for the given identity, stamping issuedAt = now and
// expiresAt = now + ttl.
func (c *Codec) Sign(userID string, role authz.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Role: string(role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature and expiry of a token and returns the session
// it carries. Every failure mode (malformed token, wrong signature, expired,
// unknown role) collapses into common.ErrInvalidToken so the caller cannot
// distinguish why verification failed.
func (c *Codec) Verify(token string) (*Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, common.ErrInvalidToken
	}

	role, ok := authz.ParseRole(claims.Role)
	if !ok || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	s := &Session{UserID: claims.Subject, Role: role}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
