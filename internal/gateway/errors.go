package gateway

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindTransport  Kind = "transport"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindBusiness   Kind = "business"
)

// Sentinels for errors.Is. Every error returned by Client is an *Error whose
// Kind matches exactly one of them.
var (
	ErrTransport    = errors.New("backend unreachable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("unexpected response shape")
	ErrBusiness     = errors.New("backend rejected request")
)

const (
	msgTransport  = "Cannot connect to the backend server. Please make sure it is running."
	msgValidation = "The server returned an unexpected response. Please try again."
	msgAuth       = "Your session has expired. Please sign in again."
	msgUnknown    = "Something went wrong. Please try again."
)

type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	// Message is the backend's own text for business errors.
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status=%d: %s", e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrUnauthorized:
		return e.Kind == KindAuth
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrBusiness:
		return e.Kind == KindBusiness
	}
	return false
}

// NewBusinessError builds the error used when the backend answers 2xx but reports
// a failure inside the payload.
func NewBusinessError(op, message string) *Error {
	return &Error{Kind: KindBusiness, Op: op, Message: message}
}

// UserMessage is the single user-facing text for err. Transport and validation
// failures collapse to one fixed message each; business messages pass through.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		return msgUnknown
	}
	switch gwErr.Kind {
	case KindTransport:
		return msgTransport
	case KindValidation:
		return msgValidation
	case KindAuth:
		return msgAuth
	case KindBusiness:
		if gwErr.Message != "" {
			return gwErr.Message
		}
	}
	return msgUnknown
}
