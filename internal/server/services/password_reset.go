package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/server/auth"
	"github.com/dmitrijs2005/recipehub/internal/server/mail"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/repomanager"
)

const resetSubject = "Reset Password Request"

// Mailer queues outbound mail.
type Mailer interface {
	Dispatch(ctx context.Context, msg mail.Message) error
}

// PasswordResetService issues mailed reset links and applies new passwords.
type PasswordResetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.TokenCodec
	hasher      *auth.Hasher
	mailer      Mailer
	ttl         time.Duration
	resetURL    string
}

func NewPasswordResetService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.TokenCodec, hasher *auth.Hasher,
	mailer Mailer, ttl time.Duration, resetURL string) *PasswordResetService {
	return &PasswordResetService{
		db:          db,
		repomanager: m,
		codec:       codec,
		hasher:      hasher,
		mailer:      mailer,
		ttl:         ttl,
		resetURL:    strings.TrimRight(resetURL, "/"),
	}
}

// ForgotPassword mails a reset link to the owner of email. Unknown emails
// yield common.ErrorNotFound; a refused dispatch yields
// common.ErrDispatchFailed.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error looking up user: %w", err)
	}

	token, err := s.codec.Sign(auth.Identity{ID: user.ID, Email: user.Email, Name: user.Name}, auth.PurposeReset, s.ttl)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: resetSubject,
		Body:    "Please use the following link to reset your password: " + s.resetLink(user.ID, token),
	}
	if err := s.mailer.Dispatch(ctx, msg); err != nil {
		if errors.Is(err, common.ErrDispatchFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrDispatchFailed, err)
	}
	return nil
}

func (s *PasswordResetService) resetLink(id models.IdentityID, token string) string {
	return s.resetURL + "/" + url.PathEscape(id.String()) + "/" + token
}

// ResetPassword replaces the password of identityID. The token must be an
// unexpired reset token issued for that same identity, and the identity
// must still exist.
func (s *PasswordResetService) ResetPassword(ctx context.Context, identityID models.IdentityID, token, newPassword string) error {
	if err := validateInput(&newPasswordInput{Password: newPassword}); err != nil {
		return err
	}

	claims, err := s.codec.Verify(token, auth.PurposeReset)
	if err != nil {
		return err
	}
	if claims.UserID != identityID {
		return common.ErrTokenIdentityMismatch
	}

	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetByID(ctx, identityID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrTokenIdentityMismatch
		}
		return fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := repo.UpdatePasswordHash(ctx, identityID, hash); err != nil {
		return fmt.Errorf("%w: %v", common.ErrUpdateFailed, err)
	}
	return nil
}
