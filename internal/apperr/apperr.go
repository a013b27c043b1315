// Package apperr defines the error kinds surfaced by the meeting pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrAuth        = errors.New("not authenticated")
	ErrNotFound    = errors.New("not found")
	ErrUpload      = errors.New("upload failed")
	ErrPersistence = errors.New("persistence failed")
	ErrStorage     = errors.New("storage failed")
	ErrNetwork     = errors.New("network failed")
)

// Error carries a kind, a user-facing message and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Auth reports a missing or invalid session.
func Auth(message string, err error) *Error { return newError(ErrAuth, message, err) }

// NotFound reports a missing local file or record.
func NotFound(message string, err error) *Error { return newError(ErrNotFound, message, err) }

// Upload reports a transfer failure after the retry ladder was exhausted.
func Upload(message string, err error) *Error { return newError(ErrUpload, message, err) }

// Persistence reports a record read or write failure.
func Persistence(message string, err error) *Error { return newError(ErrPersistence, message, err) }

// Storage reports a signing or object lookup failure.
func Storage(message string, err error) *Error { return newError(ErrStorage, message, err) }

// Network reports a request that could not complete.
func Network(message string, err error) *Error { return newError(ErrNetwork, message, err) }

// KindOf returns the kind of err, or nil when err is not a classified error.
func KindOf(err error) error {
	for _, kind := range []error{ErrAuth, ErrNotFound, ErrUpload, ErrPersistence, ErrStorage, ErrNetwork} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
