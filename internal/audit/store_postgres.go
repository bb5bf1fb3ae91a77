package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "caregate/pkg/domain"
	txcontext "caregate/pkg/platform/tx"
)

// PostgresAuditSink persists the data-access stream in PostgreSQL with the
// fixed compliance schema. Rows are insert-only: the schema carries no
// update or delete path and read queries order by a monotonic sequence
// column, which preserves append order per subject.
type PostgresAuditSink struct {
	db *sql.DB
}

func NewPostgresAuditSink(db *sql.DB) *PostgresAuditSink {
	return &PostgresAuditSink{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresAuditSink) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresAuditSink) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	query := `
		INSERT INTO audit_entries (id, ts, user_id, action, resource_type, resource_id, outcome, reason, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.UserID.String(),
		entry.Action,
		entry.Resource,
		entry.ResourceID.String(),
		entry.Outcome,
		entry.Reason,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresAuditSink) List(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT id, ts, user_id, action, resource_type, resource_id, outcome, reason, detail
		FROM audit_entries
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresAuditSink) ListBySubject(ctx context.Context, subjectID id.SubjectID) ([]Entry, error) {
	query := `
		SELECT id, ts, user_id, action, resource_type, resource_id, outcome, reason, detail
		FROM audit_entries
		WHERE resource_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit entries by subject: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			rawUser    string
			rawSubject string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &rawUser, &e.Action, &e.Resource, &rawSubject, &e.Outcome, &e.Reason, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.UserID = id.UserID(rawUser)
		e.ResourceID = id.SubjectID(rawSubject)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// PostgresSecuritySink persists the security stream.
type PostgresSecuritySink struct {
	db *sql.DB
}

func NewPostgresSecuritySink(db *sql.DB) *PostgresSecuritySink {
	return &PostgresSecuritySink{db: db}
}

func (s *PostgresSecuritySink) Append(ctx context.Context, event SecurityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	query := `
		INSERT INTO security_events (id, ts, user_id, event_type, severity, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var execer dbExecutor = s.db
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}
	_, err := execer.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.UserID.String(),
		string(event.Type),
		string(event.Severity),
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append security event: %w", err)
	}
	return nil
}

func (s *PostgresSecuritySink) List(ctx context.Context) ([]SecurityEvent, error) {
	query := `
		SELECT id, ts, user_id, event_type, severity, detail
		FROM security_events
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	defer rows.Close()

	var events []SecurityEvent
	for rows.Next() {
		var (
			e           SecurityEvent
			rawUser     string
			rawType     string
			rawSeverity string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &rawUser, &rawType, &rawSeverity, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan security event: %w", err)
		}
		e.UserID = id.UserID(rawUser)
		e.Type = EventType(rawType)
		e.Severity = Severity(rawSeverity)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security events: %w", err)
	}
	return events, nil
}
