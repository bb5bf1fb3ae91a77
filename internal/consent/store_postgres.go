package consent

import (
	"context"
	"database/sql"
	"fmt"

	id "caregate/pkg/domain"
	"caregate/pkg/platform/sentinel"
	txcontext "caregate/pkg/platform/tx"
)

// PostgresStore persists consent transitions in PostgreSQL. Transitions are
// append-only rows; the record's current state is the latest row by the
// monotonic sequence column. Only Wipe deletes, and only for erasure.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, subjectID id.SubjectID) (Record, error) {
	query := `
		SELECT state, changed_at
		FROM consent_transitions
		WHERE subject_id = $1
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID.String())
	if err != nil {
		return Record{}, fmt.Errorf("query consent transitions: %w", err)
	}
	defer rows.Close()

	record := Record{SubjectID: subjectID}
	for rows.Next() {
		var t Transition
		var state string
		if err := rows.Scan(&state, &t.At); err != nil {
			return Record{}, fmt.Errorf("scan consent transition: %w", err)
		}
		t.State = State(state)
		record.History = append(record.History, t)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("iterate consent transitions: %w", err)
	}
	if len(record.History) == 0 {
		return Record{}, sentinel.ErrNotFound
	}
	last := record.History[len(record.History)-1]
	record.Current = last.State
	record.ChangedAt = last.At
	return record, nil
}

func (s *PostgresStore) Append(ctx context.Context, subjectID id.SubjectID, t Transition) error {
	query := `
		INSERT INTO consent_transitions (subject_id, state, changed_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, subjectID.String(), string(t.State), t.At); err != nil {
		return fmt.Errorf("append consent transition: %w", err)
	}
	return nil
}

// Wipe joins a caller-provided transaction when one is in the context; the
// erasure path wipes consent, writes the tombstone, and records completion
// as one commit.
func (s *PostgresStore) Wipe(ctx context.Context, subjectID id.SubjectID) error {
	query := `DELETE FROM consent_transitions WHERE subject_id = $1`
	var execer interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}
	if _, err := execer.ExecContext(ctx, query, subjectID.String()); err != nil {
		return fmt.Errorf("wipe consent record: %w", err)
	}
	return nil
}
