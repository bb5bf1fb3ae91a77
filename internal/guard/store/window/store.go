package window

import (
	"context"
	"time"

	id "caregate/pkg/domain"
)

// Store tracks recent denials per user inside a sliding window.
type Store interface {
	// RecordDenial registers a denial at the given instant and returns how
	// many denials fall inside the window ending at that instant, including
	// the one just recorded.
	RecordDenial(ctx context.Context, userID id.UserID, at time.Time, window time.Duration) (int, error)
}
