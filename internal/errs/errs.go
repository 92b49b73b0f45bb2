// Package errs defines the error taxonomy shared by the store, services and
// HTTP layer. Callers test for a category with errors.Is against the
// sentinels and read the client-facing message from *Error.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error code returned to clients.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindTokenExpired Kind = "TOKEN_EXPIRED"
	KindInvalidToken Kind = "INVALID_TOKEN"
	KindCardNotFound Kind = "CARD_NOT_FOUND"
	KindCardInactive Kind = "CARD_INACTIVE"
	KindRateLimited  Kind = "RATE_LIMITED"
	KindUnavailable  Kind = "SERVICE_UNAVAILABLE"
	KindInternal     Kind = "INTERNAL"
)

// Sentinels, one per Kind.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrCardNotFound = errors.New("card not found")
	ErrCardInactive = errors.New("card inactive")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInternal     = errors.New("internal error")
)

var sentinelByKind = map[Kind]error{
	KindValidation:   ErrValidation,
	KindNotFound:     ErrNotFound,
	KindConflict:     ErrConflict,
	KindUnauthorized: ErrUnauthorized,
	KindTokenExpired: ErrTokenExpired,
	KindInvalidToken: ErrInvalidToken,
	KindCardNotFound: ErrCardNotFound,
	KindCardInactive: ErrCardInactive,
	KindRateLimited:  ErrRateLimited,
	KindUnavailable:  ErrUnavailable,
	KindInternal:     ErrInternal,
}

// Error carries a Kind, a message safe to show to clients and an optional
// underlying cause that is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel belonging to the error's Kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinelByKind[e.Kind]
	return ok && s == target
}

// New returns an *Error without a cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error with err as its cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf classifies any error. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, s := range sentinelByKind {
		if errors.Is(err, s) {
			return kind
		}
	}
	return KindInternal
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	switch KindOf(err) {
	case KindInternal:
		return "internal server error"
	default:
		s := sentinelByKind[KindOf(err)]
		return s.Error()
	}
}

// HTTPStatus maps a Kind to the response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindCardInactive:
		return http.StatusBadRequest
	case KindUnauthorized, KindTokenExpired:
		return http.StatusUnauthorized
	case KindInvalidToken:
		return http.StatusForbidden
	case KindNotFound, KindCardNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
