package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/logging"
	"github.com/dmitrijs2005/recipehub/internal/server/auth"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/dmitrijs2005/recipehub/internal/server/services"
)

const maxJSONBody = 1 << 20

// SessionService registers identities and issues session tokens.
type SessionService interface {
	ProfileVerifier
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Logout(ctx context.Context) error
}

// PasswordResetService runs the forgot/reset password flow.
type PasswordResetService interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, identityID models.IdentityID, token, newPassword string) error
}

// RecipeService publishes recipes.
type RecipeService interface {
	Create(ctx context.Context, author models.IdentityID, in services.RecipeInput, upload *services.Upload) (*models.Recipe, error)
	List(ctx context.Context) ([]*models.Recipe, error)
	Get(ctx context.Context, id string) (*models.Recipe, error)
	ListMine(ctx context.Context, caller models.IdentityID) ([]*models.Recipe, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Recipe, error)
	Update(ctx context.Context, caller models.IdentityID, id string, in services.RecipeInput, upload *services.Upload) (*models.Recipe, error)
	Delete(ctx context.Context, caller models.IdentityID, id string) (*models.Recipe, error)
}

// Recorder receives request and auth outcomes.
type Recorder interface {
	RecordAuth(event, outcome string)
	RecordHTTP(method string, statusCode int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, string)             {}
func (nopRecorder) RecordHTTP(string, int, time.Duration) {}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

type handler struct {
	sessions SessionService
	resets   PasswordResetService
	recipes  RecipeService
	recorder Recorder
	cookie   CookieConfig
	log      logging.Logger
}

// fail writes the response for a service error. Validation errors carry
// their field list; internal failures are logged and never leak the cause.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, validationBody{Errors: ve.Fields})
		return
	}

	status, msg, internal := errorStatus(err)
	if internal {
		h.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeMessage(w, status, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func callerFrom(r *http.Request) auth.Identity {
	id, _ := IdentityFromContext(r.Context())
	return id
}
