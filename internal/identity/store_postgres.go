package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "caregate/pkg/domain"
	"caregate/pkg/platform/sentinel"
)

// PostgresStore persists user records in PostgreSQL. This store is pure
// I/O—duplicate and unknown-user policy belongs in the registry service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, user User) error {
	query := `
		INSERT INTO users (id, name, role, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, user.ID.String(), user.Name, user.Role.String(), user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (User, error) {
	query := `
		SELECT id, name, role, created_at
		FROM users
		WHERE id = $1
	`
	var (
		user    User
		rawID   string
		rawRole string
	)
	err := s.db.QueryRowContext(ctx, query, userID.String()).Scan(&rawID, &user.Name, &rawRole, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	user.ID = id.UserID(rawID)
	user.Role = Role(rawRole)
	return user, nil
}
