package domain

import (
	"strings"
	"time"
)

// Role enumerates the kinds of affiliation a user can hold.
// The stored strings are the wire values used across the platform.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRADOR"
	RolePhysician     Role = "MEDICO"
	RoleNurse         Role = "ENFERMERO"
	RolePatient       Role = "PACIENTE"
)

// ValidRoles lists the accepted role values in their stored form.
var ValidRoles = []Role{RoleAdministrator, RolePhysician, RoleNurse, RolePatient}

// NormalizeRole trims and uppercases the input and reports whether it is a
// member of the role enumeration.
func NormalizeRole(input string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(input)))
	for _, candidate := range ValidRoles {
		if role == candidate {
			return role, true
		}
	}
	return role, false
}

// RoleList renders the accepted roles for error messages.
func RoleList() string {
	parts := make([]string, len(ValidRoles))
	for i, role := range ValidRoles {
		parts[i] = string(role)
	}
	return strings.Join(parts, ", ")
}

// Affiliation binds a user to a role, optionally scoped to a department
// and/or specialty. When a specialty is set the department is derived from
// it, never chosen independently. A user holds at most one affiliation per
// role. Affiliations are append-only; no update or delete is defined.
type Affiliation struct {
	ID           string
	UserID       string
	Role         Role
	DepartmentID *string
	SpecialtyID  *string
	CreatedAt    time.Time
}

// EntityRef is a minimal id+name projection of a related entity.
type EntityRef struct {
	ID   string
	Name string
}

// AffiliationDetail is an affiliation enriched with projections of its
// related user, department and specialty, as produced by listing queries.
type AffiliationDetail struct {
	Affiliation
	User       UserProjection
	Department *EntityRef
	Specialty  *EntityRef
}
