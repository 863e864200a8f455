// Package apperr defines the error taxonomy shared by repositories, services and handlers.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindGeocode       Kind = "geocode"
	KindStorage       Kind = "storage"
	KindDuplicateSlug Kind = "duplicate_slug"
	KindUnauthorized  Kind = "unauthorized"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Sentinels usable with errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrGeocode       = &Error{Kind: KindGeocode}
	ErrStorage       = &Error{Kind: KindStorage}
	ErrDuplicateSlug = &Error{Kind: KindDuplicateSlug}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrNotFound      = &Error{Kind: KindNotFound}
)

// Error is a classified error. Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause from pkg/errors stop at the underlying error.
func (e *Error) Cause() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels above work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, nil, format, args...)
}

func Geocode(err error, format string, args ...interface{}) error {
	return newError(KindGeocode, err, format, args...)
}

func Storage(err error, format string, args ...interface{}) error {
	return newError(KindStorage, err, format, args...)
}

func DuplicateSlug(slug string, err error) error {
	return newError(KindDuplicateSlug, err, "slug %q already exists", slug)
}

func Unauthorized(format string, args ...interface{}) error {
	return newError(KindUnauthorized, nil, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, nil, format, args...)
}

// KindOf reports the Kind of err, looking through wrapping done with
// fmt.Errorf("%w") or pkg/errors. Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the classified message of err, or err.Error() otherwise.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
