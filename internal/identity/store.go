package identity

import (
	"context"

	id "caregate/pkg/domain"
)

// Store persists user records. Implementations return sentinel.ErrNotFound
// for missing users and sentinel.ErrConflict for duplicate registration.
type Store interface {
	Save(ctx context.Context, user User) error
	Get(ctx context.Context, userID id.UserID) (User, error)
}
