package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/spec-kit/organization-service/internal/domain"
	"github.com/spec-kit/organization-service/internal/events"
	"github.com/spec-kit/organization-service/internal/repository"
	"github.com/spec-kit/organization-service/internal/service"
	apperrors "github.com/spec-kit/organization-service/pkg/util"
)

type OrganizationServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *repository.MemoryStore
	dispatcher *captureDispatcher
	cache      *memoryRosterCache
	svc        *service.OrganizationService
}

func TestOrganizationServiceSuite(t *testing.T) {
	suite.Run(t, new(OrganizationServiceSuite))
}

func (s *OrganizationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemoryStore()
	s.dispatcher = &captureDispatcher{}
	s.cache = newMemoryRosterCache()
	s.svc = service.NewOrganizationService(service.OrganizationDependencies{
		DepartmentRepo:  s.store.DepartmentRepo(),
		SpecialtyRepo:   s.store.SpecialtyRepo(),
		AffiliationRepo: s.store.AffiliationRepo(),
		Dispatcher:      s.dispatcher,
		Cache:           s.cache,
		Logger:          zap.NewNop(),
	})
}

func (s *OrganizationServiceSuite) requireCode(err error, code string) *apperrors.DomainError {
	s.Require().Error(err)
	var domainErr *apperrors.DomainError
	s.Require().True(errors.As(err, &domainErr), "expected DomainError, got %v", err)
	s.Require().Equal(code, domainErr.Code)
	return domainErr
}

func (s *OrganizationServiceSuite) mustCreateDepartment(name string) *domain.Department {
	dept, err := s.svc.CreateDepartment(s.ctx, "tests@example.com", service.DepartmentCreateInput{Name: name})
	s.Require().NoError(err)
	return dept
}

func (s *OrganizationServiceSuite) mustCreateSpecialty(name, departmentID string) *domain.Specialty {
	sp, err := s.svc.CreateSpecialty(s.ctx, "tests@example.com", service.SpecialtyCreateInput{
		Name:         name,
		DepartmentID: departmentID,
	})
	s.Require().NoError(err)
	return sp
}

func (s *OrganizationServiceSuite) TestCreateDepartmentNormalizesName() {
	dept, err := s.svc.CreateDepartment(s.ctx, "admin@example.com", service.DepartmentCreateInput{
		Name:        "  cardiology  ",
		Description: " heart care ",
	})
	s.Require().NoError(err)
	s.Equal("CARDIOLOGY", dept.Name)
	s.Equal("heart care", dept.Description)
	s.NotEmpty(dept.ID)

	s.Eventually(func() bool {
		return len(s.dispatcher.byType(events.EventDepartmentCreated)) == 1
	}, time.Second, 10*time.Millisecond)
	event := s.dispatcher.byType(events.EventDepartmentCreated)[0]
	s.Equal("admin@example.com", event.ActorEmail)
	payload, ok := event.Payload.(events.DepartmentCreatedPayload)
	s.Require().True(ok)
	s.Equal("CARDIOLOGY", payload.Name)
}

func (s *OrganizationServiceSuite) TestCreateDepartmentRejectsBlankName() {
	_, err := s.svc.CreateDepartment(s.ctx, "", service.DepartmentCreateInput{Name: "   "})
	s.requireCode(err, "VALIDATION_FAILED")
}

func (s *OrganizationServiceSuite) TestCreateDepartmentDuplicateIsCaseInsensitive() {
	s.mustCreateDepartment("cardiology")
	_, err := s.svc.CreateDepartment(s.ctx, "", service.DepartmentCreateInput{Name: "CARDIOLOGY"})
	s.requireCode(err, "CONFLICT")
	_, err = s.svc.CreateDepartment(s.ctx, "", service.DepartmentCreateInput{Name: " Cardiology "})
	s.requireCode(err, "CONFLICT")
}

func (s *OrganizationServiceSuite) TestListDepartments() {
	s.mustCreateDepartment("pediatrics")
	s.mustCreateDepartment("cardiology")

	departments, err := s.svc.ListDepartments(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(departments, 2)
	s.Equal("CARDIOLOGY", departments[0].Name)
	s.Equal("PEDIATRICS", departments[1].Name)
}

func (s *OrganizationServiceSuite) TestCreateSpecialtyRequiresNameAndDepartment() {
	dept := s.mustCreateDepartment("cardiology")

	_, err := s.svc.CreateSpecialty(s.ctx, "", service.SpecialtyCreateInput{Name: "", DepartmentID: dept.ID})
	s.requireCode(err, "VALIDATION_FAILED")

	_, err = s.svc.CreateSpecialty(s.ctx, "", service.SpecialtyCreateInput{Name: "Hemodynamics", DepartmentID: " "})
	s.requireCode(err, "VALIDATION_FAILED")
}

func (s *OrganizationServiceSuite) TestCreateSpecialtyUnknownDepartment() {
	_, err := s.svc.CreateSpecialty(s.ctx, "", service.SpecialtyCreateInput{
		Name:         "Hemodynamics",
		DepartmentID: "00000000-0000-0000-0000-000000000000",
	})
	s.requireCode(err, "NOT_FOUND")
}

func (s *OrganizationServiceSuite) TestCreateSpecialtyDuplicateNameIsGlobal() {
	deptA := s.mustCreateDepartment("cardiology")
	deptB := s.mustCreateDepartment("pediatrics")
	s.mustCreateSpecialty("Hemodynamics", deptA.ID)

	// Uniqueness holds across departments, not just within one.
	_, err := s.svc.CreateSpecialty(s.ctx, "", service.SpecialtyCreateInput{
		Name:         "Hemodynamics",
		DepartmentID: deptB.ID,
	})
	s.requireCode(err, "CONFLICT")
}

func (s *OrganizationServiceSuite) TestListSpecialtiesProjectsDepartment() {
	dept := s.mustCreateDepartment("cardiology")
	s.mustCreateSpecialty("Hemodynamics", dept.ID)

	listed, err := s.svc.ListSpecialties(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("Hemodynamics", listed[0].Name)
	s.Equal(dept.ID, listed[0].Department.ID)
	s.Equal("CARDIOLOGY", listed[0].Department.Name)
}

func (s *OrganizationServiceSuite) TestListSpecialtiesByDepartment() {
	deptA := s.mustCreateDepartment("cardiology")
	deptB := s.mustCreateDepartment("pediatrics")
	s.mustCreateSpecialty("Hemodynamics", deptA.ID)
	s.mustCreateSpecialty("Neonatology", deptB.ID)

	listed, err := s.svc.ListSpecialtiesByDepartment(s.ctx, deptA.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("Hemodynamics", listed[0].Name)

	_, err = s.svc.ListSpecialtiesByDepartment(s.ctx, "missing")
	s.requireCode(err, "NOT_FOUND")
}

func (s *OrganizationServiceSuite) TestUpdateSpecialtyRename() {
	dept := s.mustCreateDepartment("cardiology")
	sp := s.mustCreateSpecialty("Hemodynamics", dept.ID)

	updated, err := s.svc.UpdateSpecialty(s.ctx, "", sp.ID, service.SpecialtyUpdateInput{
		Name: ptr("Interventional Cardiology"),
	})
	s.Require().NoError(err)
	s.Equal("Interventional Cardiology", updated.Name)
	s.Equal(dept.ID, updated.DepartmentID)
}

func (s *OrganizationServiceSuite) TestUpdateSpecialtyRenameToTakenName() {
	dept := s.mustCreateDepartment("cardiology")
	s.mustCreateSpecialty("Hemodynamics", dept.ID)
	other := s.mustCreateSpecialty("Electrophysiology", dept.ID)

	_, err := s.svc.UpdateSpecialty(s.ctx, "", other.ID, service.SpecialtyUpdateInput{Name: ptr("Hemodynamics")})
	s.requireCode(err, "CONFLICT")

	// Renaming to its own current name is a no-op, not a conflict.
	updated, err := s.svc.UpdateSpecialty(s.ctx, "", other.ID, service.SpecialtyUpdateInput{Name: ptr("Electrophysiology")})
	s.Require().NoError(err)
	s.Equal("Electrophysiology", updated.Name)
}

func (s *OrganizationServiceSuite) TestUpdateSpecialtyUnknownTargets() {
	dept := s.mustCreateDepartment("cardiology")
	sp := s.mustCreateSpecialty("Hemodynamics", dept.ID)

	_, err := s.svc.UpdateSpecialty(s.ctx, "", "missing", service.SpecialtyUpdateInput{Name: ptr("X")})
	s.requireCode(err, "NOT_FOUND")

	_, err = s.svc.UpdateSpecialty(s.ctx, "", sp.ID, service.SpecialtyUpdateInput{DepartmentID: ptr("missing")})
	s.requireCode(err, "NOT_FOUND")
}

func (s *OrganizationServiceSuite) TestUpdateSpecialtyMoveDoesNotCascade() {
	deptA := s.mustCreateDepartment("cardiology")
	deptB := s.mustCreateDepartment("internal medicine")
	sp := s.mustCreateSpecialty("Hemodynamics", deptA.ID)

	user := s.store.SeedUser(domain.User{FirstName: "Ana", LastName: "Suarez", Email: "ana@example.com", IsActive: true})
	aff := &domain.Affiliation{
		UserID:       user.ID,
		Role:         domain.RolePhysician,
		DepartmentID: ptr(deptA.ID),
		SpecialtyID:  ptr(sp.ID),
	}
	s.Require().NoError(s.store.AffiliationRepo().Create(s.ctx, aff))

	updated, err := s.svc.UpdateSpecialty(s.ctx, "", sp.ID, service.SpecialtyUpdateInput{DepartmentID: ptr(deptB.ID)})
	s.Require().NoError(err)
	s.Equal(deptB.ID, updated.DepartmentID)

	// The existing affiliation keeps its original department reference.
	details, err := s.store.AffiliationRepo().ListWithFilter(s.ctx, repository.AffiliationFilter{SpecialtyID: ptr(sp.ID)})
	s.Require().NoError(err)
	s.Require().Len(details, 1)
	s.Require().NotNil(details[0].DepartmentID)
	s.Equal(deptA.ID, *details[0].DepartmentID)

	s.GreaterOrEqual(s.cache.invalidations, 1)

	s.Eventually(func() bool {
		return len(s.dispatcher.byType(events.EventSpecialtyUpdated)) == 1
	}, time.Second, 10*time.Millisecond)
	payload, ok := s.dispatcher.byType(events.EventSpecialtyUpdated)[0].Payload.(events.SpecialtyUpdatedPayload)
	s.Require().True(ok)
	s.Require().NotNil(payload.MovedFromDept)
	s.Equal(deptA.ID, *payload.MovedFromDept)
	s.Equal(int64(1), payload.StaleAffiliations)
}

func (s *OrganizationServiceSuite) TestAuditActorFallsBackToSystem() {
	_, err := s.svc.CreateDepartment(s.ctx, "", service.DepartmentCreateInput{Name: "cardiology"})
	s.Require().NoError(err)
	s.Eventually(func() bool {
		return len(s.dispatcher.byType(events.EventDepartmentCreated)) == 1
	}, time.Second, 10*time.Millisecond)
	s.Equal(events.SystemActor, s.dispatcher.byType(events.EventDepartmentCreated)[0].ActorEmail)
}
