package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"caregate/internal/platform/metrics"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
)

// Log owns the two append-only streams. Appends are synchronous and
// fail-closed: AppendAudit either durably persists the entry or returns an
// error, and the guard translates that error into a denial. No caller can
// act on an allow that was not logged first.
type Log struct {
	auditSink    AuditSink
	securitySink SecuritySink
	logger       *slog.Logger
	metrics      *metrics.Metrics
	clock        func() time.Time
	onAudit      func(Entry)
}

// Option configures the Log.
type Option func(*Log)

// WithLogger sets a logger for operator alerts on sink failure.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Log) { l.metrics = m }
}

// WithClock injects a time source for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Log) { l.clock = clock }
}

// WithAuditExport registers a hook invoked after every durable audit append.
// Used to feed the optional Kafka compliance exporter; the hook must not
// block.
func WithAuditExport(fn func(Entry)) Option {
	return func(l *Log) { l.onAudit = fn }
}

func NewLog(auditSink AuditSink, securitySink SecuritySink, opts ...Option) (*Log, error) {
	if auditSink == nil {
		return nil, errors.New("audit sink is required")
	}
	if securitySink == nil {
		return nil, errors.New("security sink is required")
	}
	l := &Log{
		auditSink:    auditSink,
		securitySink: securitySink,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// AppendAudit synchronously writes one entry to the data-access stream.
// Returns CodeAuditUnavailable if persistence fails - the caller MUST deny
// its operation.
func (l *Log) AppendAudit(ctx context.Context, entry Entry) error {
	if entry.UserID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "audit entry requires a user id")
	}
	if entry.Action == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "audit entry requires an action")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.clock()
	}

	if err := l.auditSink.Append(ctx, entry); err != nil {
		l.metrics.IncAuditFailure()
		if l.logger != nil {
			l.logger.ErrorContext(ctx, "CRITICAL: audit append failed, forcing denial",
				"action", entry.Action,
				"user_id", entry.UserID,
				"resource", entry.Resource,
				"error", err,
			)
		}
		// Best-effort alert on the security stream; the denial already
		// stands regardless of whether this append succeeds.
		alert := SecurityEvent{
			Timestamp: l.clock(),
			UserID:    entry.UserID,
			Type:      EventAuditSinkFailure,
			Severity:  SeverityCritical,
			Detail:    "audit sink unavailable: " + err.Error(),
		}
		_ = l.AppendSecurity(ctx, alert)
		return dErrors.Wrap(err, dErrors.CodeAuditUnavailable, "audit append failed")
	}

	l.metrics.IncAuditEntry()
	if l.onAudit != nil {
		l.onAudit(entry)
	}
	return nil
}

// AppendSecurity writes one event to the security stream.
func (l *Log) AppendSecurity(ctx context.Context, event SecurityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.clock()
	}
	if err := l.securitySink.Append(ctx, event); err != nil {
		if l.logger != nil {
			l.logger.ErrorContext(ctx, "security event append failed",
				"event_type", event.Type,
				"user_id", event.UserID,
				"error", err,
			)
		}
		return dErrors.Wrap(err, dErrors.CodeAuditUnavailable, "security append failed")
	}
	l.metrics.IncSecurityEvent(string(event.Severity))
	return nil
}

// ListAudit returns the full data-access stream for compliance reporting.
func (l *Log) ListAudit(ctx context.Context) ([]Entry, error) {
	return l.auditSink.List(ctx)
}

// ListAuditBySubject returns the entries that reference one data subject.
// Entries survive erasure of the subject: the historical record that access
// happened outlives the personal data itself.
func (l *Log) ListAuditBySubject(ctx context.Context, subjectID id.SubjectID) ([]Entry, error) {
	return l.auditSink.ListBySubject(ctx, subjectID)
}

// ListSecurity returns the security stream.
func (l *Log) ListSecurity(ctx context.Context) ([]SecurityEvent, error) {
	return l.securitySink.List(ctx)
}
