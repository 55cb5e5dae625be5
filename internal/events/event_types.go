package events

import (
	"time"

	"github.com/spec-kit/organization-service/internal/domain"
)

// EventType enumerates supported audit event identifiers.
type EventType string

const (
	EventDepartmentCreated  EventType = "department_created"
	EventSpecialtyCreated   EventType = "specialty_created"
	EventSpecialtyUpdated   EventType = "specialty_updated"
	EventAffiliationCreated EventType = "affiliation_created"
)

// SystemActor is recorded when no authenticated principal is available.
const SystemActor = "system"

// Event represents an audit event emitted after a successful operation.
// Delivery is best effort and never affects the primary operation.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ActorEmail string      `json:"actor_email"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// DepartmentCreatedPayload payload.
type DepartmentCreatedPayload struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

// SpecialtyCreatedPayload payload.
type SpecialtyCreatedPayload struct {
	SpecialtyID  string `json:"specialty_id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
}

// SpecialtyUpdatedPayload payload.
type SpecialtyUpdatedPayload struct {
	SpecialtyID       string  `json:"specialty_id"`
	Name              string  `json:"name"`
	DepartmentID      string  `json:"department_id"`
	MovedFromDept     *string `json:"moved_from_department_id,omitempty"`
	StaleAffiliations int64   `json:"stale_affiliations,omitempty"`
}

// AffiliationCreatedPayload payload.
type AffiliationCreatedPayload struct {
	AffiliationID string      `json:"affiliation_id"`
	UserEmail     string      `json:"user_email"`
	Role          domain.Role `json:"role"`
	DepartmentID  *string     `json:"department_id,omitempty"`
	SpecialtyID   *string     `json:"specialty_id,omitempty"`
}
