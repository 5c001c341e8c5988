// Package auth holds the credential primitives: the token codec, the
// password hasher and the ownership guard.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Purpose separates token families signed with the same secret. It is
// carried as the JWT audience, so a reset token never passes as a session.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "password-reset"
)

// Identity is what a token asserts about its bearer.
type Identity struct {
	ID    models.IdentityID
	Email string
	Name  string
}

// Claims is the token payload: the identity plus the registered claims
// (aud, iat, exp).
type Claims struct {
	UserID models.IdentityID `json:"id"`
	Email  string            `json:"email"`
	Name   string            `json:"name"`
	jwt.RegisteredClaims
}

// Identity returns the identity embedded in the claims.
func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, Email: c.Email, Name: c.Name}
}

// TokenCodec signs and verifies HS256 tokens with one server secret.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec returns a codec bound to secret. An empty secret is refused.
func NewTokenCodec(secret []byte) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token codec: empty secret")
	}
	return &TokenCodec{secret: secret, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	return &TokenCodec{secret: c.secret, now: now}
}

// Sign issues a token for id that expires ttl from now.
func (c *TokenCodec) Sign(id Identity, purpose Purpose, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token codec: non-positive ttl %s", ttl)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: id.ID,
		Email:  id.Email,
		Name:   id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			Audience:  jwt.ClaimStrings{string(purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, algorithm, expiry and purpose of tokenString.
// It returns common.ErrTokenExpired for an otherwise valid token past its
// expiry and common.ErrTokenMalformed for everything else.
func (c *TokenCodec) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	if tokenString == "" {
		return nil, common.ErrTokenMalformed
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(string(purpose)),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}

	if claims.UserID.IsZero() {
		return nil, fmt.Errorf("%w: missing identity", common.ErrTokenMalformed)
	}

	return claims, nil
}
