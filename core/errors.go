package core

import "github.com/pkg/errors"

// FieldError pins a validation failure to a single struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError rejects a request before any store mutation. Fields, when
// set, map the offending fields to their messages for the API response.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an unrecoverable condition, e.g. a lost database
// connection. The API server stops gracefully when its error handler sees one.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown reports whether err (or its cause) calls for a graceful shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
