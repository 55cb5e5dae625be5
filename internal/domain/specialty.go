package domain

import "time"

// Specialty is a medical specialization owned by exactly one department.
// The department reference is mandatory and only changes through an explicit
// move (UpdateSpecialty).
type Specialty struct {
	ID           string
	Name         string
	Description  string
	DepartmentID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
