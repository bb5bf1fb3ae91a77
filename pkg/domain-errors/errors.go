// Package domainerrors provides coded errors for domain and service layers.
// Codes classify failures so transports can map them to responses and tests
// can assert on failure class instead of message text.
package domainerrors

import "errors"

// Code classifies a domain error.
type Code string

const (
	// Input and configuration errors.
	CodeInvalidInput  Code = "invalid_input"
	CodeDuplicateUser Code = "duplicate_user"

	// Access control errors.
	CodeUnknownUser       Code = "unknown_user"
	CodeRoleNotAuthorized Code = "role_not_authorized"
	CodeConsentMissing    Code = "consent_missing"
	CodeSubjectErased     Code = "subject_erased"

	// Lifecycle errors.
	CodeAlreadyErased Code = "already_erased"

	// Infrastructure-driven errors.
	CodeAuditUnavailable Code = "audit_unavailable"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeInternal         Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or any error it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the code of the outermost coded error, or CodeInternal when
// err is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
