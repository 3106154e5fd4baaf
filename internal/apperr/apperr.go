// Package apperr defines the error taxonomy shared by all services:
// BadRequest, Forbidden, NotFound, Conflict and BadGateway. Errors are
// classified where they arise and mapped to transport codes at the API
// edge only.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers.
type Kind int

const (
	// KindBadRequest covers invalid amounts, self-payment, wrong
	// round/group linkage and malformed payout orders.
	KindBadRequest Kind = iota + 1

	// KindForbidden covers caller identity mismatch or insufficient role.
	KindForbidden

	// KindNotFound covers unknown groups, rounds, payments and users.
	KindNotFound

	// KindConflict covers duplicate cycle starts and invite collisions.
	KindConflict

	// KindBadGateway covers external payment-provider failures. The
	// core never retries these; retry policy belongs to the caller.
	KindBadGateway
)

// Error is a classified error. The wrapped cause, if any, is reachable
// through errors.Unwrap.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest returns a KindBadRequest error.
func BadRequest(format string, args ...any) error {
	return &Error{Kind: KindBadRequest, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden returns a KindForbidden error.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns a KindConflict error.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// BadGateway wraps an external-provider failure.
func BadGateway(err error, format string, args ...any) error {
	return &Error{Kind: KindBadGateway, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err, or 0 if err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to its HTTP status code. Unclassified errors
// map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
