package guard

import (
	"context"

	"caregate/internal/audit"
	"caregate/internal/consent"
	"caregate/internal/identity"
	"caregate/internal/policy"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
)

// GrantConsent records a Granted transition for the subject, gated through
// the same role checks as any other sensitive operation.
func (g *Guard) GrantConsent(ctx context.Context, actorID id.UserID, subjectID id.SubjectID) error {
	return g.mutateConsent(ctx, actorID, subjectID, consent.StateGranted)
}

// RevokeConsent records a Revoked transition. Revoking a subject with no
// prior record succeeds and establishes a Revoked baseline.
func (g *Guard) RevokeConsent(ctx context.Context, actorID id.UserID, subjectID id.SubjectID) error {
	return g.mutateConsent(ctx, actorID, subjectID, consent.StateRevoked)
}

// mutateConsent authorizes and applies one consent transition. The consent
// layer itself is skipped during authorization — granting consent cannot be
// conditional on consent already existing — but role, ownership, and erasure
// rules hold. The audit entry is appended before the ledger is touched, so a
// transition can never outrun its record.
func (g *Guard) mutateConsent(ctx context.Context, actorID id.UserID, subjectID id.SubjectID, state consent.State) error {
	if actorID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actor id is required")
	}
	if subjectID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	now := g.clock()

	result := g.authorizeConsentMutation(ctx, actorID, subjectID)

	entry := audit.Entry{
		Timestamp:  now,
		UserID:     actorID,
		Action:     policy.ActionUpdate.String(),
		Resource:   policy.ResourcePatientRecord.String(),
		ResourceID: subjectID,
		Outcome:    result.Decision.String(),
		Reason:     result.Reason.String(),
		Detail:     "consent_transition:" + string(state),
	}
	if err := g.log.AppendAudit(ctx, entry); err != nil {
		g.metrics.IncDecision(policy.DecisionDeny.String(), ReasonAuditUnavailable.String())
		return err
	}

	if result.Decision == policy.DecisionDeny {
		g.esc.onDenial(ctx, actorID, now)
		g.metrics.IncDecision(result.Decision.String(), result.Reason.String())
		return reasonError(result.Reason)
	}

	g.locks.Lock(subjectID.String())
	defer g.locks.Unlock(subjectID.String())
	var err error
	if state == consent.StateGranted {
		err = g.consents.Grant(ctx, subjectID, now)
	} else {
		err = g.consents.Revoke(ctx, subjectID, now)
	}
	if err != nil {
		return err
	}
	g.metrics.IncConsentTransition(string(state))
	g.metrics.IncDecision(result.Decision.String(), result.Reason.String())
	return nil
}

func (g *Guard) authorizeConsentMutation(ctx context.Context, actorID id.UserID, subjectID id.SubjectID) CheckResult {
	role, err := g.roles.RoleOf(ctx, actorID)
	if err != nil {
		return denied(ReasonUnknownUser)
	}

	erased, err := g.erasures.IsErased(ctx, subjectID)
	if err != nil || erased {
		return denied(ReasonSubjectErased)
	}

	// Patients manage their own consent; staff need update rights on
	// patient records (doctors and admins have them, nurses do not).
	if role == identity.RolePatient {
		if id.SubjectID(actorID) != subjectID {
			return denied(ReasonRoleNotAuthorized)
		}
		return allowed()
	}
	if g.table.Evaluate(role, policy.ActionUpdate, policy.ResourcePatientRecord) == policy.DecisionDeny {
		return denied(ReasonRoleNotAuthorized)
	}
	return allowed()
}

// reasonError maps a denial reason to the coded error callers receive from
// the consent mutation surface.
func reasonError(reason Reason) error {
	switch reason {
	case ReasonUnknownUser:
		return dErrors.New(dErrors.CodeUnknownUser, "unknown actor")
	case ReasonSubjectErased:
		return dErrors.New(dErrors.CodeSubjectErased, "subject has been erased")
	default:
		return dErrors.New(dErrors.CodeRoleNotAuthorized, "consent mutation not permitted")
	}
}
