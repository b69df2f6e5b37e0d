package shared

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrValidation classifies malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound classifies a missing entity or association.
	ErrNotFound = errors.New("not found")
	// ErrConflict classifies uniqueness violations.
	ErrConflict = errors.New("conflict")
)

// Error is a domain error carrying the message shown to API callers. It
// unwraps to one of the classification sentinels above.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *Error) Unwrap() error { return e.Kind }

// NotFound builds a not-found error with the given message.
func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Conflict builds a uniqueness error with the given message.
func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// Invalid builds a validation error for a single field.
func Invalid(field, msg string) *Error {
	return &Error{Kind: ErrValidation, Message: "validation failed", Fields: map[string]string{field: msg}}
}

// InvalidFields builds a validation error covering several fields.
func InvalidFields(fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: "validation failed", Fields: fields}
}

// UserSafeMessage returns the message of a domain error, or a generic text
// for anything else so storage details never reach the caller.
func UserSafeMessage(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "internal server error"
}
