package dto

import "time"

// CreateAffiliationRequest payload.
type CreateAffiliationRequest struct {
	UserID       string  `json:"userId"`
	Role         string  `json:"role"`
	DepartmentID *string `json:"departmentId"`
	SpecialtyID  *string `json:"specialtyId"`
}

// AffiliationUserSummary projects the affiliated user.
type AffiliationUserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	IsActive  bool   `json:"isActive"`
}

// AffiliationResponse response.
type AffiliationResponse struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"userId"`
	Role         string                 `json:"role"`
	DepartmentID *string                `json:"departmentId"`
	SpecialtyID  *string                `json:"specialtyId"`
	CreatedAt    time.Time              `json:"createdAt"`
	User         AffiliationUserSummary `json:"user"`
	Department   *EntityRefResponse     `json:"department,omitempty"`
	Specialty    *EntityRefResponse     `json:"specialty,omitempty"`
}
