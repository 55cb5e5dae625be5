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

// AffiliationsHandler manages affiliation endpoints.
type AffiliationsHandler struct {
	service *service.AffiliationService
}

// NewAffiliationsHandler constructs handler.
func NewAffiliationsHandler(affiliationService *service.AffiliationService) *AffiliationsHandler {
	return &AffiliationsHandler{service: affiliationService}
}

// Create POST /affiliations.
func (h *AffiliationsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAffiliationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	detail, err := h.service.CreateAffiliation(c.Context(), auth.ActorEmail(c), service.AffiliationCreateInput{
		UserID:       req.UserID,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		SpecialtyID:  req.SpecialtyID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": affiliationResponse(detail)})
}

// List GET /affiliations.
func (h *AffiliationsHandler) List(c *fiber.Ctx) error {
	details, err := h.service.ListAffiliations(c.Context(), service.AffiliationListFilter{
		UserID:        queryOrNil(c, "userId"),
		Role:          queryOrNil(c, "role"),
		DepartmentID:  queryOrNil(c, "departmentId"),
		SpecialtyID:   queryOrNil(c, "specialtyId"),
		SpecialtyName: queryOrNil(c, "specialty"),
	})
	if err != nil {
		return err
	}
	items := make([]dto.AffiliationResponse, 0, len(details))
	for i := range details {
		items = append(items, affiliationResponse(&details[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// PhysiciansBySpecialty GET /affiliations/by-specialty.
func (h *AffiliationsHandler) PhysiciansBySpecialty(c *fiber.Ctx) error {
	records, err := h.service.GetPhysiciansBySpecialty(c.Context(), c.Query("specialty"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": records})
}

func affiliationResponse(detail *domain.AffiliationDetail) dto.AffiliationResponse {
	resp := dto.AffiliationResponse{
		ID:           detail.ID,
		UserID:       detail.UserID,
		Role:         string(detail.Role),
		DepartmentID: detail.DepartmentID,
		SpecialtyID:  detail.SpecialtyID,
		CreatedAt:    detail.CreatedAt,
		User: dto.AffiliationUserSummary{
			ID:        detail.User.ID,
			FirstName: detail.User.FirstName,
			LastName:  detail.User.LastName,
			Email:     detail.User.Email,
			IsActive:  detail.User.IsActive,
		},
	}
	if detail.Department != nil {
		resp.Department = &dto.EntityRefResponse{ID: detail.Department.ID, Name: detail.Department.Name}
	}
	if detail.Specialty != nil {
		resp.Specialty = &dto.EntityRefResponse{ID: detail.Specialty.ID, Name: detail.Specialty.Name}
	}
	return resp
}

func queryOrNil(c *fiber.Ctx, key string) *string {
	value := c.Query(key)
	if value == "" {
		return nil
	}
	return &value
}
