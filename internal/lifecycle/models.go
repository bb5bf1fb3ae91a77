package lifecycle

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "caregate/pkg/domain"
)

// Tombstone proves an erasure occurred without retaining the erased content.
// Exactly one exists per erased subject; it stands in place of — never
// erases — prior audit entries.
type Tombstone struct {
	// SubjectHash is the irreversible SHA-256 hash of the subject id, so
	// the marker itself carries no identifying data.
	SubjectHash string
	ErasedAt    time.Time
	ActorID     id.UserID
}

// SubjectHash derives the irreversible tombstone key for a subject.
func SubjectHash(subjectID id.SubjectID) string {
	sum := sha256.Sum256([]byte(subjectID))
	return hex.EncodeToString(sum[:])
}

// Placeholder replaces an identifying field value during anonymization:
// a masked prefix plus the first 16 hex characters of the value's SHA-256.
// Irreversible, but stable, so de-identified records stay correlatable for
// aggregate clinical use.
func Placeholder(value string) string {
	sum := sha256.Sum256([]byte(value))
	return "***" + hex.EncodeToString(sum[:])[:16]
}

// GDPR purpose tags recorded in the audit detail field.
const (
	PurposeDataMinimization   = "gdpr:data_minimization"
	PurposeRightToBeForgotten = "gdpr:right_to_be_forgotten"
)
