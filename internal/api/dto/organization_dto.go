package dto

import "time"

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DepartmentResponse response.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EntityRefResponse is a minimal id+name projection of a related entity.
type EntityRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateSpecialtyRequest payload.
type CreateSpecialtyRequest struct {
	Name         string `json:"name"`
	DepartmentID string `json:"departmentId"`
	Description  string `json:"description"`
}

// UpdateSpecialtyRequest payload; absent fields are left untouched.
type UpdateSpecialtyRequest struct {
	Name         *string `json:"name"`
	DepartmentID *string `json:"departmentId"`
}

// SpecialtyResponse response.
type SpecialtyResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	DepartmentID string             `json:"departmentId"`
	Department   *EntityRefResponse `json:"department,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
