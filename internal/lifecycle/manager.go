// Package lifecycle implements the GDPR data-lifecycle operations:
// anonymization (data minimization) and erasure (right to be forgotten).
// Both are mediated through the access guard before any stored data moves.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"caregate/internal/audit"
	"caregate/internal/guard"
	"caregate/internal/platform/metrics"
	"caregate/internal/policy"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/keyedlock"
	"caregate/pkg/platform/sentinel"
)

// ConsentWiper removes a subject's consent record during erasure. Satisfied
// by *consent.Ledger.
type ConsentWiper interface {
	Wipe(ctx context.Context, subjectID id.SubjectID) error
}

// AtomicRunner executes fn as one unit. The postgres wiring binds this to
// tx.Run so every store write inside fn commits or rolls back together; the
// in-memory wiring runs fn directly.
type AtomicRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Manager orchestrates anonymize and erase. It holds the same keyed lock set
// as the guard, so an in-flight erasure excludes concurrent checks and
// consent mutations on the subject: callers observe the pre-erasure state or
// the fully erased state, never a half-erased one.
type Manager struct {
	guard      *guard.Guard
	tombstones TombstoneStore
	directory  PatientDirectory
	consents   ConsentWiper
	log        *audit.Log
	locks      *keyedlock.KeyedMutex
	logger     *slog.Logger
	metrics    *metrics.Metrics
	clock      func() time.Time
	atomic     AtomicRunner
}

// Config wires the manager's collaborators. Logger, Metrics, Clock, and
// Atomic are optional.
type Config struct {
	Guard      *guard.Guard
	Tombstones TombstoneStore
	Directory  PatientDirectory
	Consents   ConsentWiper
	Log        *audit.Log
	Locks      *keyedlock.KeyedMutex
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Clock      func() time.Time
	Atomic     AtomicRunner
}

func NewManager(cfg Config) (*Manager, error) {
	switch {
	case cfg.Guard == nil:
		return nil, errors.New("guard is required")
	case cfg.Tombstones == nil:
		return nil, errors.New("tombstone store is required")
	case cfg.Directory == nil:
		return nil, errors.New("patient directory is required")
	case cfg.Consents == nil:
		return nil, errors.New("consent wiper is required")
	case cfg.Log == nil:
		return nil, errors.New("audit log is required")
	case cfg.Locks == nil:
		return nil, errors.New("subject lock set is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	atomic := cfg.Atomic
	if atomic == nil {
		atomic = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Manager{
		guard:      cfg.Guard,
		tombstones: cfg.Tombstones,
		directory:  cfg.Directory,
		consents:   cfg.Consents,
		log:        cfg.Log,
		locks:      cfg.Locks,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		clock:      clock,
		atomic:     atomic,
	}, nil
}

// Anonymize strips the subject's identifying fields, preserving
// de-identified clinical codes for aggregate use. The operation is gated by
// the guard as an update to the patient record and leaves a completion
// entry tagged with the GDPR purpose.
func (m *Manager) Anonymize(ctx context.Context, subjectID id.SubjectID, actingUserID id.UserID) error {
	result, err := m.guard.Check(ctx, guard.CheckRequest{
		UserID:   actingUserID,
		Action:   policy.ActionUpdate,
		Resource: policy.ResourcePatientRecord,
		OwnerID:  subjectID,
	})
	if err != nil {
		return err
	}
	if result.Decision == policy.DecisionDeny {
		return denialError(result.Reason)
	}

	m.locks.Lock(subjectID.String())
	defer m.locks.Unlock(subjectID.String())

	if err := m.directory.Anonymize(ctx, subjectID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no patient data for subject")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "anonymization failed")
	}

	return m.recordCompletion(ctx, actingUserID, subjectID, policy.ActionUpdate, PurposeDataMinimization)
}

// Erase implements the right to be forgotten. Requires the guard to allow a
// delete on the patient record (admin-only under the default table). A
// second erasure of the same subject fails with CodeAlreadyErased and
// changes nothing. Prior audit entries for the subject are never touched.
func (m *Manager) Erase(ctx context.Context, subjectID id.SubjectID, actingUserID id.UserID) error {
	result, err := m.guard.Check(ctx, guard.CheckRequest{
		UserID:   actingUserID,
		Action:   policy.ActionDelete,
		Resource: policy.ResourcePatientRecord,
		OwnerID:  subjectID,
	})
	if err != nil {
		return err
	}
	if result.Decision == policy.DecisionDeny {
		// A tombstone already in place surfaces as a subject-erased denial.
		if result.Reason == guard.ReasonSubjectErased {
			return dErrors.New(dErrors.CodeAlreadyErased, "subject already erased")
		}
		return denialError(result.Reason)
	}

	// Exclusive hold for the whole erasure: no concurrent check, consent
	// mutation, or anonymize observes a half-erased subject.
	m.locks.Lock(subjectID.String())
	defer m.locks.Unlock(subjectID.String())

	erased, err := m.tombstones.IsErased(ctx, subjectID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "tombstone lookup failed")
	}
	if erased {
		return dErrors.New(dErrors.CodeAlreadyErased, "subject already erased")
	}

	tombstone := Tombstone{
		SubjectHash: SubjectHash(subjectID),
		ErasedAt:    m.clock(),
		ActorID:     actingUserID,
	}
	// Unlink and wipe before the tombstone: a failure part-way leaves no
	// tombstone, so the erasure stays retryable instead of stranding a
	// half-erased subject behind a SubjectErased denial. Under postgres the
	// atomic runner puts the whole sequence in one transaction.
	err = m.atomic(ctx, func(ctx context.Context) error {
		if err := m.directory.Unlink(ctx, subjectID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "patient data unlink failed")
		}
		if err := m.consents.Wipe(ctx, subjectID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "consent wipe failed")
		}
		if err := m.tombstones.Put(ctx, subjectID, tombstone); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyErased, "subject already erased")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "tombstone write failed")
		}
		return m.recordCompletion(ctx, actingUserID, subjectID, policy.ActionDelete, PurposeRightToBeForgotten)
	})
	if err != nil {
		return err
	}

	m.metrics.IncErasure()
	return nil
}

// IsErased reports whether a tombstone exists for the subject.
func (m *Manager) IsErased(ctx context.Context, subjectID id.SubjectID) (bool, error) {
	return m.tombstones.IsErased(ctx, subjectID)
}

// TombstoneOf returns the subject's tombstone for compliance reporting.
func (m *Manager) TombstoneOf(ctx context.Context, subjectID id.SubjectID) (Tombstone, error) {
	t, err := m.tombstones.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Tombstone{}, dErrors.New(dErrors.CodeNotFound, "no tombstone for subject")
		}
		return Tombstone{}, dErrors.Wrap(err, dErrors.CodeInternal, "tombstone lookup failed")
	}
	return t, nil
}

// recordCompletion appends the GDPR-tagged completion entry. The guard
// already audited the authorization; this entry records that the lifecycle
// operation itself ran.
func (m *Manager) recordCompletion(ctx context.Context, actorID id.UserID, subjectID id.SubjectID, action policy.Action, purpose string) error {
	entry := audit.Entry{
		Timestamp:  m.clock(),
		UserID:     actorID,
		Action:     action.String(),
		Resource:   policy.ResourcePatientRecord.String(),
		ResourceID: subjectID,
		Outcome:    policy.DecisionAllow.String(),
		Reason:     guard.ReasonPermitted.String(),
		Detail:     purpose,
	}
	if err := m.log.AppendAudit(ctx, entry); err != nil {
		// Surface the failure loudly: for anonymize the data change has
		// already happened, and for erase the caller's transaction is about
		// to roll back because of this error.
		if m.logger != nil {
			m.logger.ErrorContext(ctx, "CRITICAL: lifecycle completion entry failed",
				"purpose", purpose,
				"error", err,
			)
		}
		return err
	}
	return nil
}

func denialError(reason guard.Reason) error {
	switch reason {
	case guard.ReasonUnknownUser:
		return dErrors.New(dErrors.CodeUnknownUser, "unknown acting user")
	case guard.ReasonSubjectErased:
		return dErrors.New(dErrors.CodeSubjectErased, "subject has been erased")
	case guard.ReasonConsentMissing:
		return dErrors.New(dErrors.CodeConsentMissing, "consent missing for subject")
	default:
		return dErrors.New(dErrors.CodeRoleNotAuthorized, "operation not permitted")
	}
}
