// Package services contains server-side business logic: sessions, password
// reset and recipe publishing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/server/auth"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/repomanager"
)

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// SessionService registers identities and issues session tokens.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.TokenCodec
	hasher      *auth.Hasher
	ttl         time.Duration
	now         func() time.Time
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.TokenCodec, hasher *auth.Hasher, ttl time.Duration) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		codec:       codec,
		hasher:      hasher,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Register validates in, refuses a taken email with common.ErrConflict and
// stores the new identity with a hashed password.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.normalize()
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	// the unique index still decides races between concurrent registrations
	u, err := repo.Create(ctx, &models.User{Name: in.Name, Email: in.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and returns a signed session token.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	issued := s.now()
	token, err := s.codec.Sign(auth.Identity{ID: user.ID, Email: user.Email, Name: user.Name}, auth.PurposeSession, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &Session{Token: token, ExpiresAt: issued.Add(s.ttl), User: user}, nil
}

// Profile verifies a session token and returns its claims unchanged.
// An absent token is common.ErrorUnauthorized.
func (s *SessionService) Profile(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	return s.codec.Verify(token, auth.PurposeSession)
}

// Logout has no server-side state to clear; an issued token stays valid
// until it expires. The HTTP layer drops the cookie.
func (s *SessionService) Logout(ctx context.Context) error {
	return nil
}
