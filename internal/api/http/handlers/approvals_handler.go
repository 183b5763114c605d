package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/registration-service/internal/api/dto"
	"github.com/spec-kit/registration-service/internal/service"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

// ApprovalsHandler consumes emailed approval links.
type ApprovalsHandler struct {
	approvals *service.ApprovalService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(approvals *service.ApprovalService) *ApprovalsHandler {
	return &ApprovalsHandler{approvals: approvals}
}

// Status handles GET /approvals/:token, a read-only check backing the
// confirmation page. It never consumes.
func (h *ApprovalsHandler) Status(c *fiber.Ctx) error {
	status, err := h.approvals.Status(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"subjectId": status.RegistrationID,
			"consumed":  status.Consumed,
			"result":    status.ConsumedResult,
			"expired":   status.Expired,
			"expiresAt": status.ExpiresAt,
		},
	})
}

// Decide handles POST /approvals/:token.
func (h *ApprovalsHandler) Decide(c *fiber.Ctx) error {
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.approvals.ConsumeDecision(c.UserContext(), c.Params("token"), req.Action, req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(dto.DecisionResponse{
		Success:     true,
		Message:     fmt.Sprintf("registration %s", strings.ToLower(string(result.Status))),
		SubjectID:   result.RegistrationID,
		Status:      string(result.Status),
		Action:      string(result.Decision),
		Reason:      result.Reason,
		ProcessedAt: result.ProcessedAt,
	})
}
