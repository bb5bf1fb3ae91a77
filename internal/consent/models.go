package consent

import (
	"time"

	id "caregate/pkg/domain"
)

// State is a data subject's current authorization for staff access.
type State string

const (
	StateGranted State = "granted"
	StateRevoked State = "revoked"
)

// Transition is one committed state change. History entries are append-only
// and never rewritten (revocation appends, it does not erase grants).
type Transition struct {
	State State
	At    time.Time
}

// Record holds the consent state for one subject. Exactly one state is
// current at any instant; History preserves the full change sequence.
type Record struct {
	SubjectID id.SubjectID
	Current   State
	ChangedAt time.Time
	History   []Transition
}
