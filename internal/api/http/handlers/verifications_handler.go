package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/supercivilization/membership-service/internal/api/dto"
	"github.com/supercivilization/membership-service/internal/auth"
	"github.com/supercivilization/membership-service/internal/service"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

// VerificationsHandler exposes peer attestation endpoints.
type VerificationsHandler struct {
	verifications *service.VerificationService
}

// NewVerificationsHandler constructs handler.
func NewVerificationsHandler(verificationService *service.VerificationService) *VerificationsHandler {
	return &VerificationsHandler{verifications: verificationService}
}

// RecordVerification handles POST /verifications.
func (h *VerificationsHandler) RecordVerification(c *fiber.Ctx) error {
	verifier, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.VerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.InviteeID == "" || req.Confirmed == nil {
		return apperrors.NewValidationError("invitee_id and confirmed required", nil)
	}

	outcome, err := h.verifications.RecordVerification(c.Context(), verifier, req.InviteeID, *req.Confirmed, req.Reason)
	if err != nil {
		return err
	}

	resp := dto.VerificationResponse{
		ID:        outcome.Verification.ID,
		InviteeID: outcome.Verification.InviteeID,
		Confirmed: outcome.Verification.Confirmed,
		Reason:    outcome.Verification.Reason,
		NewStatus: outcome.NewStatus,
		CreatedAt: outcome.Verification.CreatedAt,
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// ListVerifications handles GET /verifications/:invitee_id.
func (h *VerificationsHandler) ListVerifications(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	list, err := h.verifications.ListForInvitee(c.Context(), c.Params("invitee_id"))
	if err != nil {
		return err
	}
	items := make([]dto.VerificationResponse, 0, len(list))
	for _, v := range list {
		items = append(items, dto.VerificationResponse{
			ID:        v.ID,
			InviteeID: v.InviteeID,
			Confirmed: v.Confirmed,
			Reason:    v.Reason,
			CreatedAt: v.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
