// Package guard is the single gate in front of every sensitive operation.
// It resolves the caller's role, evaluates the static policy table, layers
// ownership and consent on top, and appends one audit entry per invocation
// before the decision is returned. Callers never reach storage directly;
// centralizing the checks here is what makes them testable and unbypassable.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"caregate/internal/audit"
	"caregate/internal/guard/store/window"
	"caregate/internal/identity"
	"caregate/internal/platform/metrics"
	"caregate/internal/policy"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/keyedlock"
)

// RoleResolver resolves an acting user to a role. Satisfied by
// *identity.Registry.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID id.UserID) (identity.Role, error)
}

// ConsentLedger is the consent surface the guard needs. Satisfied by
// *consent.Ledger.
type ConsentLedger interface {
	Grant(ctx context.Context, subjectID id.SubjectID, at time.Time) error
	Revoke(ctx context.Context, subjectID id.SubjectID, at time.Time) error
	IsConsented(ctx context.Context, subjectID id.SubjectID, at time.Time) (bool, error)
}

// ErasureChecker reports whether a subject has been erased. Satisfied by the
// lifecycle tombstone store; the port lives here so the lifecycle manager
// can depend on the guard without a cycle.
type ErasureChecker interface {
	IsErased(ctx context.Context, subjectID id.SubjectID) (bool, error)
}

// Guard orchestrates registry, policy table, consent ledger, and audit log.
type Guard struct {
	roles    RoleResolver
	table    *policy.Table
	consents ConsentLedger
	erasures ErasureChecker
	log      *audit.Log
	locks    *keyedlock.KeyedMutex
	esc      *escalator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	clock    func() time.Time
}

// Config wires the guard's collaborators. Every field except Logger,
// Metrics, and Clock is required.
type Config struct {
	Roles      RoleResolver
	Table      *policy.Table
	Consents   ConsentLedger
	Erasures   ErasureChecker
	Windows    window.Store
	Escalation EscalationConfig
	Log        *audit.Log
	Locks      *keyedlock.KeyedMutex
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Clock      func() time.Time
}

func New(cfg Config) (*Guard, error) {
	switch {
	case cfg.Roles == nil:
		return nil, errors.New("role resolver is required")
	case cfg.Table == nil:
		return nil, errors.New("policy table is required")
	case cfg.Consents == nil:
		return nil, errors.New("consent ledger is required")
	case cfg.Erasures == nil:
		return nil, errors.New("erasure checker is required")
	case cfg.Windows == nil:
		return nil, errors.New("denial window store is required")
	case cfg.Log == nil:
		return nil, errors.New("audit log is required")
	case cfg.Locks == nil:
		return nil, errors.New("subject lock set is required")
	}
	if cfg.Escalation.Window <= 0 {
		cfg.Escalation = DefaultEscalationConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Guard{
		roles:    cfg.Roles,
		table:    cfg.Table,
		consents: cfg.Consents,
		erasures: cfg.Erasures,
		log:      cfg.Log,
		locks:    cfg.Locks,
		esc:      newEscalator(cfg.Windows, cfg.Log, cfg.Logger, cfg.Escalation),
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		clock:    clock,
	}, nil
}

// Check gates one access attempt. The sequence is fixed: resolve role,
// evaluate the table, layer erasure/ownership/consent for patient data,
// append exactly one audit entry, run the denial heuristic, return.
//
// Fail-closed: a failed audit append forces Deny with ReasonAuditUnavailable
// and a CodeAuditUnavailable error. Allow is only ever returned after its
// audit entry was durably appended.
func (g *Guard) Check(ctx context.Context, req CheckRequest) (CheckResult, error) {
	if err := validate(req); err != nil {
		// Malformed requests are caller misuse, not access decisions; they
		// never reach the decision path or the audit stream.
		return CheckResult{Decision: policy.DecisionDeny}, err
	}
	now := g.clock()

	result, consentBypass := g.decide(ctx, req, now)

	entry := audit.Entry{
		Timestamp:  now,
		UserID:     req.UserID,
		Action:     req.Action.String(),
		Resource:   req.Resource.String(),
		ResourceID: req.OwnerID,
		Outcome:    result.Decision.String(),
		Reason:     result.Reason.String(),
	}
	if err := g.log.AppendAudit(ctx, entry); err != nil {
		// The decision, whatever it was, is void: no unaudited access is
		// ever permitted.
		g.metrics.IncDecision(policy.DecisionDeny.String(), ReasonAuditUnavailable.String())
		return denied(ReasonAuditUnavailable), err
	}

	if result.Decision == policy.DecisionDeny {
		g.esc.onDenial(ctx, req.UserID, now)
		if consentBypass {
			g.reportConsentBypass(ctx, req, now)
		}
	}
	g.metrics.IncDecision(result.Decision.String(), result.Reason.String())
	return result, nil
}

// decide computes the pre-audit decision. The second return marks a
// role-permitted caller stopped only by consent, which feeds the
// consent-bypass security signal.
func (g *Guard) decide(ctx context.Context, req CheckRequest, now time.Time) (CheckResult, bool) {
	role, err := g.roles.RoleOf(ctx, req.UserID)
	if err != nil {
		// Unknown user, lookup failure, and timeout all land here; none of
		// them may ever widen access.
		return denied(ReasonUnknownUser), false
	}

	if g.table.Evaluate(role, req.Action, req.Resource) == policy.DecisionDeny {
		return denied(ReasonRoleNotAuthorized), false
	}

	if !req.Resource.IsPatientData() {
		return allowed(), false
	}

	erased, err := g.erasures.IsErased(ctx, req.OwnerID)
	if err != nil {
		return denied(ReasonSubjectErased), false
	}
	if erased {
		return denied(ReasonSubjectErased), false
	}

	// Patients reach only their own data. The reason code deliberately does
	// not distinguish ownership from role so callers cannot probe whose
	// records exist.
	if role == identity.RolePatient {
		if id.SubjectID(req.UserID) != req.OwnerID {
			return denied(ReasonRoleNotAuthorized), false
		}
		return allowed(), false
	}

	// Admin and the owning patient are exempt from the consent layer.
	if role == identity.RoleAdmin {
		return allowed(), false
	}

	g.locks.Lock(req.OwnerID.String())
	consented, err := g.consents.IsConsented(ctx, req.OwnerID, now)
	g.locks.Unlock(req.OwnerID.String())
	if err != nil {
		return denied(ReasonConsentMissing), false
	}
	if !consented {
		return denied(ReasonConsentMissing), true
	}
	return allowed(), false
}

func (g *Guard) reportConsentBypass(ctx context.Context, req CheckRequest, now time.Time) {
	event := audit.SecurityEvent{
		Timestamp: now,
		UserID:    req.UserID,
		Type:      audit.EventConsentBypassAttempt,
		Severity:  audit.SeverityInfo,
		Detail:    "role-permitted access denied for missing consent, subject " + req.OwnerID.String(),
	}
	if err := g.log.AppendSecurity(ctx, event); err != nil && g.logger != nil {
		g.logger.ErrorContext(ctx, "failed to record consent bypass attempt",
			"user_id", req.UserID,
			"error", err,
		)
	}
}

func validate(req CheckRequest) error {
	if req.UserID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if req.Action == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "action is required")
	}
	if req.Resource == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "resource type is required")
	}
	if req.Resource.IsPatientData() && req.OwnerID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "owner id is required for patient data")
	}
	return nil
}
