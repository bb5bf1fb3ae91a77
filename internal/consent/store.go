package consent

import (
	"context"

	id "caregate/pkg/domain"
)

// Store persists consent records. Implementations return
// sentinel.ErrNotFound when no record exists for the subject.
type Store interface {
	Get(ctx context.Context, subjectID id.SubjectID) (Record, error)
	// Append commits a transition for the subject, creating the record on
	// first use. The store performs no idempotence checks; the ledger owns
	// that rule.
	Append(ctx context.Context, subjectID id.SubjectID, t Transition) error
	// Wipe removes the subject's consent record entirely. Used only by the
	// erasure path; normal revocation appends a transition instead.
	Wipe(ctx context.Context, subjectID id.SubjectID) error
}
