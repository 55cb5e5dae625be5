package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/organization-service/internal/api/dto"
	"github.com/spec-kit/organization-service/internal/auth"
	"github.com/spec-kit/organization-service/internal/domain"
	"github.com/spec-kit/organization-service/internal/repository"
	"github.com/spec-kit/organization-service/internal/service"
	apperrors "github.com/spec-kit/organization-service/pkg/util"
)

// SpecialtiesHandler manages specialty endpoints.
type SpecialtiesHandler struct {
	service *service.OrganizationService
}

// NewSpecialtiesHandler constructs handler.
func NewSpecialtiesHandler(orgService *service.OrganizationService) *SpecialtiesHandler {
	return &SpecialtiesHandler{service: orgService}
}

// Create POST /specialties.
func (h *SpecialtiesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSpecialtyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	sp, err := h.service.CreateSpecialty(c.Context(), auth.ActorEmail(c), service.SpecialtyCreateInput{
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": specialtyResponse(sp)})
}

// List GET /specialties.
func (h *SpecialtiesHandler) List(c *fiber.Ctx) error {
	specialties, err := h.service.ListSpecialties(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.SpecialtyResponse, 0, len(specialties))
	for i := range specialties {
		items = append(items, specialtyWithDepartmentResponse(&specialties[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListByDepartment GET /specialties/department/:departmentId.
func (h *SpecialtiesHandler) ListByDepartment(c *fiber.Ctx) error {
	specialties, err := h.service.ListSpecialtiesByDepartment(c.Context(), c.Params("departmentId"))
	if err != nil {
		return err
	}
	items := make([]dto.SpecialtyResponse, 0, len(specialties))
	for i := range specialties {
		items = append(items, specialtyResponse(&specialties[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Update PUT /specialties/:id.
func (h *SpecialtiesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateSpecialtyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	sp, err := h.service.UpdateSpecialty(c.Context(), auth.ActorEmail(c), c.Params("id"), service.SpecialtyUpdateInput{
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": specialtyResponse(sp)})
}

func specialtyResponse(sp *domain.Specialty) dto.SpecialtyResponse {
	return dto.SpecialtyResponse{
		ID:           sp.ID,
		Name:         sp.Name,
		Description:  sp.Description,
		DepartmentID: sp.DepartmentID,
		CreatedAt:    sp.CreatedAt,
		UpdatedAt:    sp.UpdatedAt,
	}
}

func specialtyWithDepartmentResponse(item *repository.SpecialtyWithDepartment) dto.SpecialtyResponse {
	resp := specialtyResponse(&item.Specialty)
	resp.Department = &dto.EntityRefResponse{ID: item.Department.ID, Name: item.Department.Name}
	return resp
}
