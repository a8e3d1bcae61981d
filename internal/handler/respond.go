// Package handler provides the HTTP boundary for the Custos API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/service"
)

// errorBody is the JSON error envelope shared by every endpoint, matching
// the shape the guard writes for authorization failures.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeServiceError maps service and domain errors onto HTTP responses.
// Anything unrecognized is reported as a plain internal error so storage
// details never leak to clients.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRoleNotFound),
		errors.Is(err, domain.ErrRightNotFound):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())

	case errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrRoleAlreadyExists),
		errors.Is(err, domain.ErrRightAlreadyExists):
		writeError(w, http.StatusConflict, "Conflict", err.Error())

	case errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrInvalidRoleName),
		errors.Is(err, service.ErrInvalidRight),
		errors.Is(err, auth.ErrPasswordEmpty):
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), err.Error())

	case errors.Is(err, domain.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", auth.BearerScheme)
		writeError(w, http.StatusUnauthorized, "InvalidCredentials", err.Error())

	case errors.Is(err, domain.ErrUserInactive):
		writeError(w, http.StatusForbidden, "AccountInactive", err.Error())

	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "RateLimited", err.Error())

	default:
		writeError(w, http.StatusInternalServerError, string(auth.CodeInternalError), "internal error")
	}
}

// decodeJSON decodes a request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
