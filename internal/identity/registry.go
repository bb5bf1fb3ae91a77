package identity

import (
	"context"
	"errors"
	"time"

	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/sentinel"
)

// lookupTimeout bounds role resolution. A store modeling an external identity
// source may block; a timeout maps to CodeUnknownUser so a slow lookup can
// never widen access.
const lookupTimeout = 2 * time.Second

// Registry resolves user identities to roles. Users and their roles are
// static configuration: registration happens at process start and there is
// no deletion API (erasure concerns patient data, not staff identities).
type Registry struct {
	store Store
}

func NewRegistry(store Store) (*Registry, error) {
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	return &Registry{store: store}, nil
}

// Register adds a user. Duplicate registration is a configuration-time
// misuse, not a runtime access-control error.
func (r *Registry) Register(ctx context.Context, user User) error {
	if user.ID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if !user.Role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+user.Role.String())
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if err := r.store.Save(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeDuplicateUser, "user already registered: "+user.ID.String())
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register user")
	}
	return nil
}

// RoleOf resolves the role for a user id. Missing users, lookup failures,
// and timeouts all report CodeUnknownUser: callers must treat any failed
// resolution as an unknown caller, never as an allow.
func (r *Registry) RoleOf(ctx context.Context, userID id.UserID) (Role, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	user, err := r.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnknownUser, "unknown user: "+userID.String())
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnknownUser, "role lookup failed")
	}
	return user.Role, nil
}
