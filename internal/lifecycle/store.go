package lifecycle

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks TombstoneStore,PatientDirectory

import (
	"context"

	id "caregate/pkg/domain"
)

// TombstoneStore persists erasure tombstones. Put returns
// sentinel.ErrConflict when a tombstone already exists for the subject, so
// double erasure is rejected at the store boundary even under races.
type TombstoneStore interface {
	Put(ctx context.Context, subjectID id.SubjectID, t Tombstone) error
	Get(ctx context.Context, subjectID id.SubjectID) (Tombstone, error)
	// IsErased satisfies the guard's ErasureChecker port.
	IsErased(ctx context.Context, subjectID id.SubjectID) (bool, error)
}

// PatientDirectory is the external patient-data collaborator. The core never
// sees clinical content; it only instructs the directory to strip or unlink
// identifying fields.
type PatientDirectory interface {
	// Anonymize replaces the subject's identifying fields with irreversible
	// placeholders while preserving de-identified clinical codes.
	Anonymize(ctx context.Context, subjectID id.SubjectID) error
	// Unlink removes every stored linkage to the subject.
	Unlink(ctx context.Context, subjectID id.SubjectID) error
}
