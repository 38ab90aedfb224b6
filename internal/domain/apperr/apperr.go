// Package apperr defines the error kinds every layer reports and the HTTP
// layer maps to status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindExternal       Kind = "external_service"
	KindInternal       Kind = "internal"
)

// Kind sentinels, for errors.Is(err, apperr.ErrConflict).
var (
	ErrValidation     = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrAuthentication = &Error{Kind: KindAuthentication, Msg: "authentication required"}
	ErrAuthorization  = &Error{Kind: KindAuthorization, Msg: "forbidden"}
	ErrNotFound       = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrConflict       = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrExternal       = &Error{Kind: KindExternal, Msg: "external service failed"}
	ErrInternal       = &Error{Kind: KindInternal, Msg: "internal error"}
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so domain sentinels compare equal to
// the kind sentinels above.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" || isKindSentinel(t) {
		return e.Kind == t.Kind
	}
	return e == t
}

func isKindSentinel(t *Error) bool {
	switch t {
	case ErrValidation, ErrAuthentication, ErrAuthorization, ErrNotFound, ErrConflict, ErrExternal, ErrInternal:
		return true
	}
	return false
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error { return &Error{Kind: kind, Msg: msg, Err: err} }

func Validation(msg string) *Error     { return New(KindValidation, msg) }
func Authentication(msg string) *Error { return New(KindAuthentication, msg) }
func Authorization(msg string) *Error  { return New(KindAuthorization, msg) }
func NotFound(msg string) *Error       { return New(KindNotFound, msg) }
func Conflict(msg string) *Error       { return New(KindConflict, msg) }

// External wraps a provider failure, keeping the provider's text in Error().
func External(provider string, err error) *Error {
	return Wrap(KindExternal, provider+" request failed", err)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing text of the first *Error in the chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "internal server error"
}
