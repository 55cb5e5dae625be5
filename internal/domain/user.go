package domain

import "time"

// User is owned by the external user directory. This service never mutates
// users; it only checks existence and projects a subset of fields.
type User struct {
	ID                   string
	FirstName            string
	LastName             string
	Email                string
	IsActive             bool
	IdentificationType   *string
	IdentificationNumber *string
	Age                  *int
	CreatedAt            time.Time
}

// UserProjection is the subset of user fields exposed on affiliation listings.
type UserProjection struct {
	ID                   string
	FirstName            string
	LastName             string
	Email                string
	IsActive             bool
	IdentificationType   *string
	IdentificationNumber *string
	Age                  *int
}

// StatusLabel renders the activity flag as the human-readable roster status.
func (u UserProjection) StatusLabel() string {
	if u.IsActive {
		return "Active"
	}
	return "Inactive"
}
