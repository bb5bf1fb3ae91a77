package audit

import (
	"context"

	id "caregate/pkg/domain"
)

// AuditSink is the injected append-only sink for the data-access stream.
// Append either durably succeeds or returns an error; it never partially
// writes a record. Read APIs expose no mutation.
//
// List and ListBySubject must preserve append order for entries concerning
// the same subject: if append A completed before append B began, A precedes
// B in read-back order.
type AuditSink interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	ListBySubject(ctx context.Context, subjectID id.SubjectID) ([]Entry, error)
}

// SecuritySink is the injected append-only sink for the security stream.
type SecuritySink interface {
	Append(ctx context.Context, event SecurityEvent) error
	List(ctx context.Context) ([]SecurityEvent, error)
}
