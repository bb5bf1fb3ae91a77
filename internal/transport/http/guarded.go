package httptransport

import (
	"context"

	"caregate/internal/guard"
	"caregate/internal/policy"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
)

func readPatientRecord(subjectID id.SubjectID) guard.CheckRequest {
	return guard.CheckRequest{
		Action:   policy.ActionRead,
		Resource: policy.ResourcePatientRecord,
		OwnerID:  subjectID,
	}
}

func viewAuditLog() guard.CheckRequest {
	return guard.CheckRequest{
		Action:   policy.ActionViewAuditLog,
		Resource: policy.ResourceAuditLog,
	}
}

// requireAllowed runs a read endpoint's access check through the guard so
// the attempt is audited like any other, then maps a denial to a coded error.
func (h *Handler) requireAllowed(ctx context.Context, actorID id.UserID, req guard.CheckRequest) error {
	req.UserID = actorID
	result, err := h.guard.Check(ctx, req)
	if err != nil {
		return err
	}
	if result.Decision == policy.DecisionDeny {
		return denialError(result.Reason)
	}
	return nil
}

func denialError(reason guard.Reason) error {
	switch reason {
	case guard.ReasonUnknownUser:
		return dErrors.New(dErrors.CodeUnknownUser, "acting user is not registered")
	case guard.ReasonSubjectErased:
		return dErrors.New(dErrors.CodeSubjectErased, "subject has been erased")
	case guard.ReasonConsentMissing:
		return dErrors.New(dErrors.CodeConsentMissing, "subject has not granted consent")
	default:
		return dErrors.New(dErrors.CodeRoleNotAuthorized, "access denied")
	}
}
