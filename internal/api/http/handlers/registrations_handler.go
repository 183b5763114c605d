package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/registration-service/internal/api/dto"
	"github.com/spec-kit/registration-service/internal/service"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

// RegistrationsHandler exposes submission and the admin review queue.
type RegistrationsHandler struct {
	approvals *service.ApprovalService
	admin     *service.AdminService
}

// NewRegistrationsHandler constructs handler.
func NewRegistrationsHandler(approvals *service.ApprovalService, admin *service.AdminService) *RegistrationsHandler {
	return &RegistrationsHandler{approvals: approvals, admin: admin}
}

// Submit handles POST /registrations.
func (h *RegistrationsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		return apperrors.NewValidationError("name and email required", nil)
	}

	reg, err := h.approvals.SubmitRegistration(c.UserContext(), req.Name, req.Email, req.Organization)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.RegistrationSummary{
			ID:           reg.ID,
			Name:         reg.Name,
			Email:        reg.Email,
			Organization: reg.Organization,
			Status:       string(reg.Status),
			CreatedAt:    reg.CreatedAt,
		},
	})
}

// List handles GET /admin/registrations.
func (h *RegistrationsHandler) List(c *fiber.Ctx) error {
	regs, err := h.admin.ListPending(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}

	summaries := make([]dto.RegistrationSummary, 0, len(regs))
	for _, reg := range regs {
		summaries = append(summaries, dto.RegistrationSummary{
			ID:           reg.ID,
			Name:         reg.Name,
			Email:        reg.Email,
			Organization: reg.Organization,
			Status:       string(reg.Status),
			CreatedAt:    reg.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": summaries})
}
