package upload

import (
	"errors"
	"fmt"
)

// Kind is a stable classification of manager failures. The transport layer
// maps kinds to HTTP statuses; the core only guarantees the kind is
// distinguishable and stable.
type Kind string

const (
	KindValidation Kind = "validation_failed"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindUpstream   Kind = "upstream_failed"
	KindInternal   Kind = "internal_error"
)

// ErrVersionConflict is returned by Repository.Save when the stored row's
// version no longer matches the one the write was based on.
var ErrVersionConflict = errors.New("session version conflict")

// Error carries a failure kind plus a human-readable detail string.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Anything that is not an *Error (or a wrapped
// ErrVersionConflict) counts as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrVersionConflict) {
		return KindConflict
	}
	return KindInternal
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
