// Package auth implements the bearer-token authorization core for Custos.
package auth

import (
	"errors"
	"net/http"
)

// Authentication and authorization errors. Every failure path out of the
// guard resolves to exactly one of these before control returns to the HTTP
// boundary; nothing lower-level escapes untranslated.
var (
	// ErrNoCredential indicates the Authorization header is absent.
	ErrNoCredential = errors.New("no credential provided")

	// ErrBadAuthorization indicates the Authorization header is present
	// but malformed (wrong shape or unsupported scheme).
	ErrBadAuthorization = errors.New("malformed authorization header")

	// ErrTokenMalformed indicates the token encoding or signature is invalid.
	ErrTokenMalformed = errors.New("bad bearer token")

	// ErrTokenExpired indicates the token expiry instant has passed.
	ErrTokenExpired = errors.New("bearer token expired")

	// ErrUnknownPrincipal indicates the token subject no longer resolves
	// to a user (e.g. deleted after issuance).
	ErrUnknownPrincipal = errors.New("unknown principal")

	// ErrInsufficientRights indicates the principal authenticated but holds
	// none of the required rights and lacks the no_limits sentinel.
	ErrInsufficientRights = errors.New("insufficient rights")

	// ErrPasswordEmpty indicates a hash request for an empty password.
	ErrPasswordEmpty = errors.New("password must not be empty")

	// ErrDirectoryUnavailable indicates the principal directory failed for
	// a reason other than a definite negative answer (I/O error, timeout,
	// cancellation). Never reported as a security-specific kind.
	ErrDirectoryUnavailable = errors.New("principal directory unavailable")
)

// ErrorCode identifies an authorization failure kind in API responses.
type ErrorCode string

const (
	CodeMissingCredential      ErrorCode = "MissingCredential"
	CodeMalformedAuthorization ErrorCode = "MalformedAuthorization"
	CodeInvalidToken           ErrorCode = "InvalidToken"
	CodeExpiredToken           ErrorCode = "ExpiredToken"
	CodeUnknownPrincipal       ErrorCode = "UnknownPrincipal"
	CodeInsufficientRights     ErrorCode = "InsufficientRights"
	CodeInvalidInput           ErrorCode = "InvalidInput"
	CodeInternalError          ErrorCode = "InternalError"
)

// Error is an authorization failure with its externally visible status.
type Error struct {
	// Code is the stable machine-readable failure kind.
	Code ErrorCode

	// Message is the human-readable message.
	Message string

	// HTTPStatus is the HTTP status code the failure maps to.
	HTTPStatus int
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError classifies an error from the guard pipeline into an Error.
// Unrecognized errors become InternalError so that infrastructure failures
// are never misreported as security signals.
func NewError(err error) *Error {
	switch {
	case errors.Is(err, ErrNoCredential):
		return &Error{Code: CodeMissingCredential, Message: err.Error(), HTTPStatus: http.StatusUnauthorized}

	case errors.Is(err, ErrBadAuthorization):
		return &Error{Code: CodeMalformedAuthorization, Message: err.Error(), HTTPStatus: http.StatusBadRequest}

	case errors.Is(err, ErrTokenMalformed):
		return &Error{Code: CodeInvalidToken, Message: err.Error(), HTTPStatus: http.StatusUnauthorized}

	case errors.Is(err, ErrTokenExpired):
		return &Error{Code: CodeExpiredToken, Message: err.Error(), HTTPStatus: http.StatusUnauthorized}

	case errors.Is(err, ErrUnknownPrincipal):
		return &Error{Code: CodeUnknownPrincipal, Message: err.Error(), HTTPStatus: http.StatusUnauthorized}

	case errors.Is(err, ErrInsufficientRights):
		return &Error{Code: CodeInsufficientRights, Message: err.Error(), HTTPStatus: http.StatusForbidden}

	case errors.Is(err, ErrPasswordEmpty):
		return &Error{Code: CodeInvalidInput, Message: err.Error(), HTTPStatus: http.StatusBadRequest}

	default:
		return &Error{Code: CodeInternalError, Message: "internal error", HTTPStatus: http.StatusInternalServerError}
	}
}
