package domain

import (
	"strings"

	dErrors "caregate/pkg/domain-errors"
)

// UserID identifies an acting user (staff or patient account).
// Invariant: non-empty after trimming whitespace.
//
// Usage: construct via ParseUserID at trust boundaries to enforce the
// invariant; direct casting bypasses validation.
type UserID string

// SubjectID identifies a data subject (the patient whose data is touched).
// Patients act under a UserID equal to their SubjectID.
type SubjectID string

// ParseUserID constructs a UserID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or whitespace.
func ParseUserID(s string) (UserID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id cannot be empty")
	}
	return UserID(trimmed), nil
}

// ParseSubjectID constructs a SubjectID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or whitespace.
func ParseSubjectID(s string) (SubjectID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject id cannot be empty")
	}
	return SubjectID(trimmed), nil
}

func (u UserID) String() string    { return string(u) }
func (s SubjectID) String() string { return string(s) }
