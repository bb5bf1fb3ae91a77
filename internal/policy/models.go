package policy

import dErrors "caregate/pkg/domain-errors"

// Action is the closed set of operations the access matrix knows about.
type Action string

const (
	ActionRead           Action = "read"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionViewAuditLog   Action = "view_audit_log"
	ActionManageSchedule Action = "manage_schedule"
)

var validActions = map[Action]bool{
	ActionRead:           true,
	ActionCreate:         true,
	ActionUpdate:         true,
	ActionDelete:         true,
	ActionViewAuditLog:   true,
	ActionManageSchedule: true,
}

// ParseAction constructs an Action from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "action cannot be empty")
	}
	a := Action(s)
	if !validActions[a] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid action: "+s)
	}
	return a, nil
}

func (a Action) String() string { return string(a) }

// ResourceType is an opaque tag for what is being accessed. The evaluator
// treats it as a label; it never inspects resource content.
type ResourceType string

const (
	ResourcePatientRecord ResourceType = "patient_record"
	ResourceClinicalNote  ResourceType = "clinical_note"
	ResourceSchedule      ResourceType = "schedule"
	ResourceAuditLog      ResourceType = "audit_log"
)

var validResources = map[ResourceType]bool{
	ResourcePatientRecord: true,
	ResourceClinicalNote:  true,
	ResourceSchedule:      true,
	ResourceAuditLog:      true,
}

// ParseResourceType constructs a ResourceType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseResourceType(s string) (ResourceType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "resource type cannot be empty")
	}
	r := ResourceType(s)
	if !validResources[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid resource type: "+s)
	}
	return r, nil
}

func (r ResourceType) String() string { return string(r) }

// IsPatientData reports whether the resource type carries patient-identifying
// content, and therefore falls under consent and erasure rules.
func (r ResourceType) IsPatientData() bool {
	return r == ResourcePatientRecord || r == ResourceClinicalNote
}

// Decision is the outcome of a permission lookup.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

func (d Decision) String() string { return string(d) }
