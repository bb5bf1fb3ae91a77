package policy

import "caregate/internal/identity"

// Table is the static role/action/resource matrix. It is built once at
// startup and never mutated afterwards, so lookups need no locking.
// Evaluation is pure: no I/O, no side effects, deterministic (I1).
//
// The table answers only the role dimension. Ownership and consent are
// layered on top by the access guard; keeping them out of the table keeps
// it small and testable in isolation.
type Table struct {
	rules map[rule]struct{}
}

type rule struct {
	role     identity.Role
	action   Action
	resource ResourceType
}

// Builder collects rules before the table is sealed. It exists so tests can
// construct narrow tables; production code uses DefaultTable.
type Builder struct {
	rules map[rule]struct{}
}

func NewBuilder() *Builder {
	return &Builder{rules: make(map[rule]struct{})}
}

// Allow adds one rule for each action on each resource type.
func (b *Builder) Allow(role identity.Role, actions []Action, resources []ResourceType) *Builder {
	for _, a := range actions {
		for _, r := range resources {
			b.rules[rule{role: role, action: a, resource: r}] = struct{}{}
		}
	}
	return b
}

// Build seals the rule set into an immutable Table.
func (b *Builder) Build() *Table {
	rules := make(map[rule]struct{}, len(b.rules))
	for k := range b.rules {
		rules[k] = struct{}{}
	}
	return &Table{rules: rules}
}

// Evaluate returns Allow only when an explicit rule matches the tuple.
// Absence of a rule means Deny: default-deny is the table's only default.
func (t *Table) Evaluate(role identity.Role, action Action, resource ResourceType) Decision {
	if _, ok := t.rules[rule{role: role, action: action, resource: resource}]; ok {
		return DecisionAllow
	}
	return DecisionDeny
}

// DefaultTable encodes the clinical access matrix.
//
//	Doctor:  read/create/update on patient records and clinical notes,
//	         delete on clinical notes, full schedule management.
//	Nurse:   read/create on clinical notes, read on patient records,
//	         schedule management. Never delete.
//	Patient: read on their own records and notes (ownership enforced by
//	         the guard, not here).
//	Admin:   every action on every known resource type, including the
//	         audit log read surface and the lifecycle paths.
func DefaultTable() *Table {
	patientData := []ResourceType{ResourcePatientRecord, ResourceClinicalNote}
	allResources := []ResourceType{ResourcePatientRecord, ResourceClinicalNote, ResourceSchedule, ResourceAuditLog}
	allActions := []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionViewAuditLog, ActionManageSchedule}

	return NewBuilder().
		Allow(identity.RoleDoctor, []Action{ActionRead, ActionCreate, ActionUpdate}, patientData).
		Allow(identity.RoleDoctor, []Action{ActionDelete}, []ResourceType{ResourceClinicalNote}).
		Allow(identity.RoleDoctor, []Action{ActionRead, ActionCreate, ActionUpdate, ActionManageSchedule}, []ResourceType{ResourceSchedule}).
		Allow(identity.RoleNurse, []Action{ActionRead, ActionCreate}, []ResourceType{ResourceClinicalNote}).
		Allow(identity.RoleNurse, []Action{ActionRead}, []ResourceType{ResourcePatientRecord}).
		Allow(identity.RoleNurse, []Action{ActionRead, ActionCreate, ActionUpdate, ActionManageSchedule}, []ResourceType{ResourceSchedule}).
		Allow(identity.RolePatient, []Action{ActionRead}, patientData).
		Allow(identity.RoleAdmin, allActions, allResources).
		Build()
}
