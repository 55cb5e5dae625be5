package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/organization-service/internal/domain"
	"github.com/spec-kit/organization-service/internal/events"
	"github.com/spec-kit/organization-service/internal/matcher"
	"github.com/spec-kit/organization-service/internal/repository"
	apperrors "github.com/spec-kit/organization-service/pkg/util"
)

const missingField = "-"

// RosterCache caches physician roster payloads keyed by specialty id.
type RosterCache interface {
	GetRoster(ctx context.Context, specialtyID string) ([]byte, bool)
	SetRoster(ctx context.Context, specialtyID string, payload []byte, ttl time.Duration) error
	InvalidateRoster(ctx context.Context, specialtyID string) error
}

// AffiliationService resolves and persists affiliations, keeping the
// department/specialty/affiliation relationships coherent, and serves the
// affiliation listings and the specialty physician roster.
type AffiliationService struct {
	affiliations repository.AffiliationRepository
	users        repository.UserRepository
	departments  repository.DepartmentRepository
	specialties  repository.SpecialtyRepository
	dispatcher   events.Dispatcher
	cache        RosterCache
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// AffiliationDependencies bundles collaborators for the service.
type AffiliationDependencies struct {
	AffiliationRepo repository.AffiliationRepository
	UserRepo        repository.UserRepository
	DepartmentRepo  repository.DepartmentRepository
	SpecialtyRepo   repository.SpecialtyRepository
	Dispatcher      events.Dispatcher
	Cache           RosterCache
	CacheTTL        time.Duration
	Logger          *zap.Logger
}

// AffiliationCreateInput describes affiliation creation payload.
type AffiliationCreateInput struct {
	UserID       string
	Role         string
	DepartmentID *string
	SpecialtyID  *string
}

// AffiliationListFilter carries the optional, conjunctive listing filters.
type AffiliationListFilter struct {
	UserID        *string
	Role          *string
	DepartmentID  *string
	SpecialtyID   *string
	SpecialtyName *string
}

// PhysicianRecord is the roster projection for a physician affiliated with a
// specialty. Optional fields default to "-" when the data is absent.
type PhysicianRecord struct {
	ID                   string `json:"id"`
	FullName             string `json:"fullName"`
	Email                string `json:"email"`
	IdentificationType   string `json:"identificationType"`
	IdentificationNumber string `json:"identificationNumber"`
	Age                  string `json:"age"`
	Status               string `json:"status"`
	Department           string `json:"department"`
	Specialty            string `json:"specialty"`
}

// NewAffiliationService constructs the service.
func NewAffiliationService(deps AffiliationDependencies) *AffiliationService {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &AffiliationService{
		affiliations: deps.AffiliationRepo,
		users:        deps.UserRepo,
		departments:  deps.DepartmentRepo,
		specialties:  deps.SpecialtyRepo,
		dispatcher:   deps.Dispatcher,
		cache:        deps.Cache,
		cacheTTL:     ttl,
		logger:       deps.Logger,
	}
}

// CreateAffiliation binds a user to a role. When a specialty is supplied the
// department is derived from it; a supplied department must agree with the
// specialty's owner. A user may hold at most one affiliation per role.
func (s *AffiliationService) CreateAffiliation(ctx context.Context, actor string, input AffiliationCreateInput) (*domain.AffiliationDetail, error) {
	if strings.TrimSpace(input.UserID) == "" || strings.TrimSpace(input.Role) == "" {
		return nil, apperrors.NewValidationError("userId and role are required", nil)
	}
	role, ok := domain.NormalizeRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role. allowed: "+domain.RoleList(), nil)
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, notFoundIfNoRows(err, "user")
	}

	departmentID := trimmedOrNil(input.DepartmentID)
	specialtyID := trimmedOrNil(input.SpecialtyID)

	var dept *domain.Department
	var spec *domain.Specialty

	if specialtyID != nil {
		spec, err = s.specialties.GetByID(ctx, *specialtyID)
		if err != nil {
			return nil, notFoundIfNoRows(err, "specialty")
		}
		if departmentID != nil && *departmentID != spec.DepartmentID {
			return nil, apperrors.NewConflict("department does not match specialty", map[string]any{
				"department_id":           *departmentID,
				"specialty_department_id": spec.DepartmentID,
			})
		}
		// The specialty always wins: the department is derived from it.
		derived := spec.DepartmentID
		departmentID = &derived
		dept, err = s.departments.GetByID(ctx, spec.DepartmentID)
		if err != nil {
			return nil, notFoundIfNoRows(err, "department")
		}
	} else if departmentID != nil {
		dept, err = s.departments.GetByID(ctx, *departmentID)
		if err != nil {
			return nil, notFoundIfNoRows(err, "department")
		}
	}

	exists, err := s.affiliations.ExistsByUserAndRole(ctx, user.ID, role)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("user already has an affiliation with this role", map[string]any{"role": role})
	}

	aff := &domain.Affiliation{
		UserID:       user.ID,
		Role:         role,
		DepartmentID: departmentID,
		SpecialtyID:  specialtyID,
	}
	if err := s.affiliations.Create(ctx, aff); err != nil {
		// The unique constraint on (user_id, role) is the authoritative
		// guard; the pre-check above is only an early exit.
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("user already has an affiliation with this role", map[string]any{"role": role})
		}
		return nil, err
	}

	if s.cache != nil && specialtyID != nil {
		if err := s.cache.InvalidateRoster(ctx, *specialtyID); err != nil {
			s.logger.Debug("roster cache invalidation failed", zap.Error(err))
		}
	}

	publishAudit(s.dispatcher, s.logger, events.Event{
		Type:       events.EventAffiliationCreated,
		ActorEmail: actor,
		Payload: events.AffiliationCreatedPayload{
			AffiliationID: aff.ID,
			UserEmail:     user.Email,
			Role:          aff.Role,
			DepartmentID:  aff.DepartmentID,
			SpecialtyID:   aff.SpecialtyID,
		},
	})

	detail := &domain.AffiliationDetail{
		Affiliation: *aff,
		User: domain.UserProjection{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			IsActive:  user.IsActive,
		},
	}
	if dept != nil {
		detail.Department = &domain.EntityRef{ID: dept.ID, Name: dept.Name}
	}
	if spec != nil {
		detail.Specialty = &domain.EntityRef{ID: spec.ID, Name: spec.Name}
	}
	return detail, nil
}

// ListAffiliations returns enriched affiliations matching every supplied
// filter, in the deterministic listing order.
func (s *AffiliationService) ListAffiliations(ctx context.Context, filter AffiliationListFilter) ([]domain.AffiliationDetail, error) {
	repoFilter := repository.AffiliationFilter{
		UserID:        trimmedOrNil(filter.UserID),
		DepartmentID:  trimmedOrNil(filter.DepartmentID),
		SpecialtyID:   trimmedOrNil(filter.SpecialtyID),
		SpecialtyName: trimmedOrNil(filter.SpecialtyName),
	}
	if role := trimmedOrNil(filter.Role); role != nil {
		normalized, _ := domain.NormalizeRole(*role)
		repoFilter.Role = &normalized
	}
	return s.affiliations.ListWithFilter(ctx, repoFilter)
}

// GetPhysiciansBySpecialty resolves a specialty from free text using the
// locale-insensitive matcher and returns its physician roster. A specialty
// with zero physicians is reported as not found, not as an empty list.
func (s *AffiliationService) GetPhysiciansBySpecialty(ctx context.Context, specialtyText string) ([]PhysicianRecord, error) {
	if strings.TrimSpace(specialtyText) == "" {
		return nil, apperrors.NewValidationError("specialty text is required", nil)
	}

	refs, err := s.specialties.ListRefs(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}

	matches := matcher.Match(specialtyText, names)
	if len(matches) == 0 {
		return nil, apperrors.NewNotFound("specialty", map[string]any{"specialty": specialtyText})
	}
	if len(matches) > 1 {
		return nil, apperrors.NewConflict("ambiguous specialty name", map[string]any{"specialty": specialtyText})
	}
	specialty := refs[matches[0]]

	if s.cache != nil {
		if payload, ok := s.cache.GetRoster(ctx, specialty.ID); ok {
			var cached []PhysicianRecord
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
		}
	}

	physicianRole := domain.RolePhysician
	details, err := s.affiliations.ListWithFilter(ctx, repository.AffiliationFilter{
		Role:        &physicianRole,
		SpecialtyID: &specialty.ID,
	})
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, apperrors.NewNotFound("physicians for this specialty", map[string]any{"specialty_id": specialty.ID})
	}

	records := make([]PhysicianRecord, 0, len(details))
	for _, detail := range details {
		records = append(records, physicianRecord(detail))
	}

	if s.cache != nil {
		if payload, err := json.Marshal(records); err == nil {
			if err := s.cache.SetRoster(ctx, specialty.ID, payload, s.cacheTTL); err != nil {
				s.logger.Debug("roster cache write failed", zap.Error(err))
			}
		}
	}
	return records, nil
}

func physicianRecord(detail domain.AffiliationDetail) PhysicianRecord {
	record := PhysicianRecord{
		ID:                   detail.User.ID,
		FullName:             detail.User.FirstName + " " + detail.User.LastName,
		Email:                detail.User.Email,
		IdentificationType:   missingField,
		IdentificationNumber: missingField,
		Age:                  missingField,
		Status:               detail.User.StatusLabel(),
		Department:           missingField,
		Specialty:            missingField,
	}
	if detail.User.IdentificationType != nil {
		record.IdentificationType = *detail.User.IdentificationType
	}
	if detail.User.IdentificationNumber != nil {
		record.IdentificationNumber = *detail.User.IdentificationNumber
	}
	if detail.User.Age != nil {
		record.Age = strconv.Itoa(*detail.User.Age)
	}
	if detail.Department != nil {
		record.Department = detail.Department.Name
	}
	if detail.Specialty != nil {
		record.Specialty = detail.Specialty.Name
	}
	return record
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
