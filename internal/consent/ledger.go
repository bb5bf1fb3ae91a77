package consent

import (
	"context"
	"errors"
	"time"

	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/sentinel"
)

// Ledger persists consent decisions and answers point-in-time consent
// checks. It keeps orchestration out of the guard and domain logic thin.
//
// Grant and Revoke are idempotent: repeating the current state is a no-op
// success and appends no transition. Revoking a subject with no prior record
// succeeds and establishes a Revoked baseline.
type Ledger struct {
	store Store
}

func NewLedger(store Store) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("consent store is required")
	}
	return &Ledger{store: store}, nil
}

func (l *Ledger) Grant(ctx context.Context, subjectID id.SubjectID, at time.Time) error {
	return l.transition(ctx, subjectID, StateGranted, at)
}

func (l *Ledger) Revoke(ctx context.Context, subjectID id.SubjectID, at time.Time) error {
	return l.transition(ctx, subjectID, StateRevoked, at)
}

func (l *Ledger) transition(ctx context.Context, subjectID id.SubjectID, state State, at time.Time) error {
	if subjectID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	record, err := l.store.Get(ctx, subjectID)
	switch {
	case err == nil:
		if record.Current == state {
			return nil
		}
	case errors.Is(err, sentinel.ErrNotFound):
		// First transition for this subject.
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "consent lookup failed")
	}
	if err := l.store.Append(ctx, subjectID, Transition{State: state, At: at}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "consent transition failed")
	}
	return nil
}

// IsConsented reports the state current as of the latest committed
// transition. An absent record means not consented.
func (l *Ledger) IsConsented(ctx context.Context, subjectID id.SubjectID, _ time.Time) (bool, error) {
	record, err := l.store.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "consent lookup failed")
	}
	return record.Current == StateGranted, nil
}

// HistoryOf returns the subject's full transition history for compliance
// reporting. Read-only; an absent record yields CodeNotFound.
func (l *Ledger) HistoryOf(ctx context.Context, subjectID id.SubjectID) (Record, error) {
	record, err := l.store.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, dErrors.New(dErrors.CodeNotFound, "no consent record for subject")
		}
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "consent lookup failed")
	}
	return record, nil
}

// Wipe removes the subject's consent record as part of erasure. Only the
// lifecycle manager calls this, under its exclusive subject hold.
func (l *Ledger) Wipe(ctx context.Context, subjectID id.SubjectID) error {
	if err := l.store.Wipe(ctx, subjectID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "consent wipe failed")
	}
	return nil
}
