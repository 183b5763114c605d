package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/registration-service/internal/api/dto"
	"github.com/spec-kit/registration-service/internal/service"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

// RecoveryHandler exposes the credential recovery flow.
type RecoveryHandler struct {
	recovery *service.RecoveryService
}

// NewRecoveryHandler constructs handler.
func NewRecoveryHandler(recovery *service.RecoveryService) *RecoveryHandler {
	return &RecoveryHandler{recovery: recovery}
}

// Request handles POST /recovery/request. The response is identical
// whether or not the email matched anything.
func (h *RecoveryHandler) Request(c *fiber.Ctx) error {
	var req dto.RecoveryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	if err := h.recovery.Request(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(dto.RecoverySuccessResponse{
		Success: true,
		Message: "if the email is registered, a recovery link has been sent",
	})
}

// Reset handles POST /recovery/reset/:token.
func (h *RecoveryHandler) Reset(c *fiber.Ctx) error {
	var req dto.RecoveryResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if _, err := h.recovery.Reset(c.UserContext(), c.Params("token"), req.Password); err != nil {
		return err
	}

	return c.JSON(dto.RecoverySuccessResponse{
		Success: true,
		Message: "password updated",
	})
}
