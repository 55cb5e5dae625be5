package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/organization-service/internal/api/dto"
	"github.com/spec-kit/organization-service/internal/auth"
	"github.com/spec-kit/organization-service/internal/domain"
	"github.com/spec-kit/organization-service/internal/service"
	apperrors "github.com/spec-kit/organization-service/pkg/util"
)

// DepartmentsHandler manages department endpoints.
type DepartmentsHandler struct {
	service *service.OrganizationService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(orgService *service.OrganizationService) *DepartmentsHandler {
	return &DepartmentsHandler{service: orgService}
}

// Create POST /departments.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	dept, err := h.service.CreateDepartment(c.Context(), auth.ActorEmail(c), service.DepartmentCreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// List GET /departments.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	departments, err := h.service.ListDepartments(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(departments))
	for i := range departments {
		items = append(items, departmentResponse(&departments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:          dept.ID,
		Name:        dept.Name,
		Description: dept.Description,
		CreatedAt:   dept.CreatedAt,
		UpdatedAt:   dept.UpdatedAt,
	}
}
