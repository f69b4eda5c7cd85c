package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindCredentialMissing
	KindCredentialInvalid
	KindNotAuthorized
	KindNotFound
	KindConflict
	KindUnavailable
)

// Error is the application error carried up to the transport layer.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// StatusCode maps the error kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindCredentialMissing:
		return http.StatusUnauthorized
	case KindCredentialInvalid, KindNotAuthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for errors.Is checks.
var (
	ErrCredentialMissing = &Error{Kind: KindCredentialMissing, Message: "unauthorized access"}
	ErrCredentialInvalid = &Error{Kind: KindCredentialInvalid, Message: "forbidden access"}
	ErrNotAuthorized     = &Error{Kind: KindNotAuthorized, Message: "forbidden access"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrBadRequest        = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrUnavailable       = &Error{Kind: KindUnavailable, Message: "repository unavailable"}
)

func CredentialMissing(err error) *Error {
	return &Error{Kind: KindCredentialMissing, Message: "unauthorized access", Err: err}
}

func CredentialInvalid(err error) *Error {
	return &Error{Kind: KindCredentialInvalid, Message: "forbidden access", Err: err}
}

func NotAuthorized(message string) *Error {
	return &Error{Kind: KindNotAuthorized, Message: message}
}

func NotFound(resource string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource), Err: err}
}

func BadRequest(message string, err error) *Error {
	return &Error{Kind: KindBadRequest, Message: message, Err: err}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unavailable(err error) *Error {
	return &Error{Kind: KindUnavailable, Message: "repository unavailable", Err: err}
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}

// PublicMessage is the client-facing text for err. Internal details stay in logs.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Kind == KindInternal || appErr.Kind == KindUnavailable {
			return "internal server error"
		}
		return appErr.Message
	}
	return "internal server error"
}
