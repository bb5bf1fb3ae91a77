package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "caregate/pkg/domain"
	"caregate/pkg/platform/sentinel"
	txcontext "caregate/pkg/platform/tx"
)

// PostgresTombstoneStore persists tombstones keyed by subject hash. The
// primary key makes double erasure a unique violation, mapped to
// sentinel.ErrConflict.
type PostgresTombstoneStore struct {
	db *sql.DB
}

func NewPostgresTombstoneStore(db *sql.DB) *PostgresTombstoneStore {
	return &PostgresTombstoneStore{db: db}
}

func (s *PostgresTombstoneStore) Put(ctx context.Context, subjectID id.SubjectID, t Tombstone) error {
	query := `
		INSERT INTO erasure_tombstones (subject_hash, erased_at, actor_id)
		VALUES ($1, $2, $3)
	`
	var execer interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}
	_, err := execer.ExecContext(ctx, query, t.SubjectHash, t.ErasedAt, t.ActorID.String())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("put tombstone: %w", err)
	}
	return nil
}

func (s *PostgresTombstoneStore) Get(ctx context.Context, subjectID id.SubjectID) (Tombstone, error) {
	query := `
		SELECT subject_hash, erased_at, actor_id
		FROM erasure_tombstones
		WHERE subject_hash = $1
	`
	var (
		t        Tombstone
		rawActor string
	)
	err := s.db.QueryRowContext(ctx, query, SubjectHash(subjectID)).Scan(&t.SubjectHash, &t.ErasedAt, &rawActor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tombstone{}, sentinel.ErrNotFound
		}
		return Tombstone{}, fmt.Errorf("get tombstone: %w", err)
	}
	t.ActorID = id.UserID(rawActor)
	return t, nil
}

func (s *PostgresTombstoneStore) IsErased(ctx context.Context, subjectID id.SubjectID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM erasure_tombstones WHERE subject_hash = $1)`
	var erased bool
	if err := s.db.QueryRowContext(ctx, query, SubjectHash(subjectID)).Scan(&erased); err != nil {
		return false, fmt.Errorf("check tombstone: %w", err)
	}
	return erased, nil
}
