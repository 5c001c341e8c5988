package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/recipehub/internal/common"
)

type messageBody struct {
	Message string `json:"message"`
}

type validationBody struct {
	Errors []common.FieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// errorStatus maps a service error to a status code and client message.
// internal reports whether the cause must stay in the logs only.
func errorStatus(err error) (status int, msg string, internal bool) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found", false
	case errors.Is(err, common.ErrConflict):
		return http.StatusUnauthorized, "User with this email already exists", false
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest, "wrong password", false
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "No token provided", false
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusBadRequest, "Token expired", false
	case errors.Is(err, common.ErrTokenMalformed), errors.Is(err, common.ErrTokenIdentityMismatch):
		return http.StatusBadRequest, "Invalid token", false
	case errors.Is(err, common.ErrForbidden):
		return http.StatusBadRequest, "You are not the author of this post", false
	case errors.Is(err, common.ErrDispatchFailed):
		return http.StatusInternalServerError, "Error sending email", true
	case errors.Is(err, common.ErrUpdateFailed):
		return http.StatusInternalServerError, "Password not updated", true
	}
	return http.StatusInternalServerError, "internal server error", true
}

// outcome is the metrics label for err.
func outcome(err error) string {
	var ve *common.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid_input"
	case errors.Is(err, common.ErrConflict):
		return "conflict"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, common.ErrTokenMalformed), errors.Is(err, common.ErrTokenIdentityMismatch):
		return "invalid_token"
	case errors.Is(err, common.ErrDispatchFailed):
		return "dispatch_failed"
	}
	return "error"
}
