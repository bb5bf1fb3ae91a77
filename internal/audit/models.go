package audit

import (
	"time"

	id "caregate/pkg/domain"
)

// Entry is one data-access audit record. It is emitted from the guard for
// every access decision and is immutable once appended: no update or delete
// operation exists anywhere in this package.
//
// The field set is fixed (timestamp, user id, action, resource type,
// resource id, outcome, reason): external compliance tooling consumes this
// schema, so keep it transport-agnostic and stable.
type Entry struct {
	ID        string
	Timestamp time.Time
	UserID    id.UserID
	Action    string
	Resource  string
	// ResourceID is the data subject the access targeted, when the resource
	// is patient data; empty otherwise.
	ResourceID id.SubjectID
	Outcome    string
	Reason     string
	// Detail carries free-form context such as GDPR purpose tags. It is for
	// the log, never echoed back to an unauthorized caller.
	Detail string
}

// EventType classifies security events.
type EventType string

const (
	EventRepeatedDenial       EventType = "repeated_denial"
	EventConsentBypassAttempt EventType = "consent_bypass_attempt"
	EventAuditSinkFailure     EventType = "audit_sink_failure"
)

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is one security-stream record. Like Entry, it is immutable
// once appended.
type SecurityEvent struct {
	ID        string
	Timestamp time.Time
	UserID    id.UserID
	Type      EventType
	Severity  Severity
	Detail    string
}
