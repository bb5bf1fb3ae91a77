package guard

import (
	"caregate/internal/policy"
	id "caregate/pkg/domain"
)

// Reason explains a decision. The code is structured for the system and the
// log; user-facing surfaces may render a generic message so denials leak no
// probing detail to unauthorized callers.
type Reason string

const (
	ReasonPermitted         Reason = "permitted"
	ReasonUnknownUser       Reason = "unknown_user"
	ReasonRoleNotAuthorized Reason = "role_not_authorized"
	ReasonConsentMissing    Reason = "consent_missing"
	ReasonSubjectErased     Reason = "subject_erased"
	ReasonAuditUnavailable  Reason = "audit_unavailable"
)

func (r Reason) String() string { return string(r) }

// CheckRequest describes one attempted access. OwnerID names the data
// subject when the resource carries patient data; it is empty otherwise.
type CheckRequest struct {
	UserID   id.UserID
	Action   policy.Action
	Resource policy.ResourceType
	OwnerID  id.SubjectID
}

// CheckResult is the decision the caller must obey: on Deny the underlying
// operation must not be performed.
type CheckResult struct {
	Decision policy.Decision
	Reason   Reason
}

func denied(reason Reason) CheckResult {
	return CheckResult{Decision: policy.DecisionDeny, Reason: reason}
}

func allowed() CheckResult {
	return CheckResult{Decision: policy.DecisionAllow, Reason: ReasonPermitted}
}
