package identity

import (
	"time"

	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
)

// Role is the closed set of roles recognized by the access matrix. There is
// no dynamic role creation; capabilities derive from the policy table.
type Role string

const (
	RoleNurse   Role = "nurse"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RoleNurse:   true,
	RoleDoctor:  true,
	RolePatient: true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from external input.
//
// Usage: call from handlers/adapters when parsing requests or configuration.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+s)
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string { return string(r) }

// User is the single identity record: identifier plus role tag. Capability
// sets come from the policy table, never from per-role types.
type User struct {
	ID        id.UserID
	Name      string
	Role      Role
	CreatedAt time.Time
}
