package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/organization-service/internal/domain"
	"github.com/spec-kit/organization-service/internal/events"
	"github.com/spec-kit/organization-service/internal/repository"
	apperrors "github.com/spec-kit/organization-service/pkg/util"
)

// OrganizationService keeps the department/specialty structure coherent:
// unique normalized department names, globally unique specialty names, and
// every specialty anchored to exactly one department.
type OrganizationService struct {
	departments  repository.DepartmentRepository
	specialties  repository.SpecialtyRepository
	affiliations repository.AffiliationRepository
	dispatcher   events.Dispatcher
	cache        RosterCache
	logger       *zap.Logger
}

// OrganizationDependencies bundles collaborators for the service.
type OrganizationDependencies struct {
	DepartmentRepo  repository.DepartmentRepository
	SpecialtyRepo   repository.SpecialtyRepository
	AffiliationRepo repository.AffiliationRepository
	Dispatcher      events.Dispatcher
	Cache           RosterCache
	Logger          *zap.Logger
}

// DepartmentCreateInput describes department creation payload.
type DepartmentCreateInput struct {
	Name        string
	Description string
}

// SpecialtyCreateInput describes specialty creation payload.
type SpecialtyCreateInput struct {
	Name         string
	DepartmentID string
	Description  string
}

// SpecialtyUpdateInput carries optional fields of a partial update.
type SpecialtyUpdateInput struct {
	Name         *string
	DepartmentID *string
}

// NewOrganizationService constructs the service.
func NewOrganizationService(deps OrganizationDependencies) *OrganizationService {
	return &OrganizationService{
		departments:  deps.DepartmentRepo,
		specialties:  deps.SpecialtyRepo,
		affiliations: deps.AffiliationRepo,
		dispatcher:   deps.Dispatcher,
		cache:        deps.Cache,
		logger:       deps.Logger,
	}
}

// CreateDepartment creates a department with a normalized, unique name.
func (s *OrganizationService) CreateDepartment(ctx context.Context, actor string, input DepartmentCreateInput) (*domain.Department, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("department name is required", nil)
	}
	name := domain.NormalizeDepartmentName(input.Name)

	existing, err := s.departments.GetByName(ctx, name)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("department already exists", map[string]any{"name": name})
	}

	dept := &domain.Department{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("department already exists", map[string]any{"name": name})
		}
		return nil, err
	}

	publishAudit(s.dispatcher, s.logger, events.Event{
		Type:       events.EventDepartmentCreated,
		ActorEmail: actor,
		Payload: events.DepartmentCreatedPayload{
			DepartmentID: dept.ID,
			Name:         dept.Name,
		},
	})
	return dept, nil
}

// ListDepartments returns every department.
func (s *OrganizationService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.List(ctx)
}

// CreateSpecialty creates a specialty under an existing department. Specialty
// names are unique globally, not per department.
func (s *OrganizationService) CreateSpecialty(ctx context.Context, actor string, input SpecialtyCreateInput) (*domain.Specialty, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.DepartmentID) == "" {
		return nil, apperrors.NewValidationError("name and departmentId are required", nil)
	}

	if _, err := s.departments.GetByID(ctx, input.DepartmentID); err != nil {
		return nil, notFoundIfNoRows(err, "department")
	}

	existing, err := s.specialties.GetByName(ctx, name)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("specialty already exists", map[string]any{"name": name})
	}

	sp := &domain.Specialty{
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		DepartmentID: input.DepartmentID,
	}
	if err := s.specialties.Create(ctx, sp); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("specialty already exists", map[string]any{"name": name})
		}
		return nil, err
	}

	publishAudit(s.dispatcher, s.logger, events.Event{
		Type:       events.EventSpecialtyCreated,
		ActorEmail: actor,
		Payload: events.SpecialtyCreatedPayload{
			SpecialtyID:  sp.ID,
			Name:         sp.Name,
			DepartmentID: sp.DepartmentID,
		},
	})
	return sp, nil
}

// ListSpecialties returns every specialty with its department projection.
func (s *OrganizationService) ListSpecialties(ctx context.Context) ([]repository.SpecialtyWithDepartment, error) {
	return s.specialties.List(ctx)
}

// ListSpecialtiesByDepartment returns the specialties owned by a department.
func (s *OrganizationService) ListSpecialtiesByDepartment(ctx context.Context, departmentID string) ([]domain.Specialty, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, notFoundIfNoRows(err, "department")
	}
	return s.specialties.ListByDepartment(ctx, departmentID)
}

// UpdateSpecialty renames a specialty and/or moves it to another department.
// Moving does not cascade to existing affiliations: their derived department
// keeps pointing at the previous one. The resulting mismatch is counted and
// logged so the inconsistency window is visible.
func (s *OrganizationService) UpdateSpecialty(ctx context.Context, actor, id string, input SpecialtyUpdateInput) (*domain.Specialty, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		input.Name = nil
	}
	if input.DepartmentID != nil && strings.TrimSpace(*input.DepartmentID) == "" {
		input.DepartmentID = nil
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
		dup, err := s.specialties.GetByName(ctx, name)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if dup != nil && dup.ID != id {
			return nil, apperrors.NewConflict("a specialty with that name already exists", map[string]any{"name": name})
		}
	}

	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			return nil, notFoundIfNoRows(err, "target department")
		}
	}

	current, err := s.specialties.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "specialty")
	}

	updated, err := s.specialties.Update(ctx, id, repository.SpecialtyUpdate{
		Name:         input.Name,
		DepartmentID: input.DepartmentID,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("a specialty with that name already exists", nil)
		}
		return nil, notFoundIfNoRows(err, "specialty")
	}

	var movedFrom *string
	var stale int64
	if input.DepartmentID != nil && *input.DepartmentID != current.DepartmentID {
		from := current.DepartmentID
		movedFrom = &from
		stale, err = s.affiliations.CountDepartmentMismatch(ctx, updated.ID, updated.DepartmentID)
		if err != nil {
			s.logger.Warn("could not count stale affiliations after specialty move",
				zap.String("specialty_id", updated.ID), zap.Error(err))
		} else if stale > 0 {
			s.logger.Warn("specialty moved; existing affiliations still reference the previous department",
				zap.String("specialty_id", updated.ID),
				zap.String("previous_department_id", from),
				zap.String("new_department_id", updated.DepartmentID),
				zap.Int64("stale_affiliations", stale))
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRoster(ctx, updated.ID); err != nil {
			s.logger.Debug("roster cache invalidation failed", zap.Error(err))
		}
	}

	publishAudit(s.dispatcher, s.logger, events.Event{
		Type:       events.EventSpecialtyUpdated,
		ActorEmail: actor,
		Payload: events.SpecialtyUpdatedPayload{
			SpecialtyID:       updated.ID,
			Name:              updated.Name,
			DepartmentID:      updated.DepartmentID,
			MovedFromDept:     movedFrom,
			StaleAffiliations: stale,
		},
	})
	return updated, nil
}

func notFoundIfNoRows(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

// publishAudit emits an audit event without blocking or failing the calling
// operation. The event is delivered on a detached context; errors and panics
// are logged and swallowed.
func publishAudit(dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ActorEmail == "" {
		event.ActorEmail = events.SystemActor
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("audit publish panic", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dispatcher.Publish(ctx, event); err != nil {
			logger.Warn("audit publish failed",
				zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}()
}
