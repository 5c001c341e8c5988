package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/server/metrics"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/dmitrijs2005/recipehub/internal/server/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID   models.IdentityID `json:"id"`
	Name string            `json:"name"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.sessions.Register(r.Context(), in)
	h.recorder.RecordAuth(metrics.EventRegister, outcome(err))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	h.recorder.RecordAuth(metrics.EventLogin, outcome(err))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		h.fail(w, r, err)
		return
	}

	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, loginResponse{ID: sess.User.ID, Name: sess.User.Name})
}

func (h *handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.resets.ForgotPassword(r.Context(), req.Email)
	h.recorder.RecordAuth(metrics.EventForgotPassword, outcome(err))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "Incorrect email")
			return
		}
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password reset email sent successfully")
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := models.IdentityID(chi.URLParam(r, "identityId"))
	err := h.resets.ResetPassword(r.Context(), id, chi.URLParam(r, "resetToken"), req.Password)
	h.recorder.RecordAuth(metrics.EventResetPassword, outcome(err))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password successfully updated")
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	claims, err := h.sessions.Profile(sessionToken(r))
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			writeMessage(w, http.StatusBadRequest, "Token has been expired")
			return
		}
		h.fail(w, r, err)
		return
	}

	markCaller(r.Context(), claims.UserID)
	writeJSON(w, http.StatusOK, claims)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "User logout successfully")
}

func (h *handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
