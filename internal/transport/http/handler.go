// Package httptransport is the thin HTTP layer over the compliance core. It
// decodes requests, delegates to domain services, and translates coded
// errors to responses; business logic stays in the internal services.
package httptransport

import (
	"context"
	"log/slog"
	"time"

	"caregate/internal/audit"
	"caregate/internal/consent"
	"caregate/internal/guard"
	id "caregate/pkg/domain"
)

// AccessGuard is the decision surface the transport needs.
type AccessGuard interface {
	Check(ctx context.Context, req guard.CheckRequest) (guard.CheckResult, error)
	GrantConsent(ctx context.Context, actorID id.UserID, subjectID id.SubjectID) error
	RevokeConsent(ctx context.Context, actorID id.UserID, subjectID id.SubjectID) error
}

// ConsentReader exposes the read-only consent surface.
type ConsentReader interface {
	HistoryOf(ctx context.Context, subjectID id.SubjectID) (consent.Record, error)
}

// AuditReader exposes the read-only log surface for compliance reporting.
type AuditReader interface {
	ListAudit(ctx context.Context) ([]audit.Entry, error)
	ListAuditBySubject(ctx context.Context, subjectID id.SubjectID) ([]audit.Entry, error)
	ListSecurity(ctx context.Context) ([]audit.SecurityEvent, error)
}

// LifecycleManager exposes the GDPR operations.
type LifecycleManager interface {
	Anonymize(ctx context.Context, subjectID id.SubjectID, actingUserID id.UserID) error
	Erase(ctx context.Context, subjectID id.SubjectID, actingUserID id.UserID) error
}

// Handler is the thin HTTP layer.
type Handler struct {
	logger    *slog.Logger
	guard     AccessGuard
	consents  ConsentReader
	log       AuditReader
	lifecycle LifecycleManager
	timeout   time.Duration
}

func NewHandler(
	logger *slog.Logger,
	g AccessGuard,
	consents ConsentReader,
	log AuditReader,
	lifecycle LifecycleManager,
) *Handler {
	return &Handler{
		logger:    logger,
		guard:     g,
		consents:  consents,
		log:       log,
		lifecycle: lifecycle,
		timeout:   30 * time.Second,
	}
}
