package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/supercivilization/membership-service/internal/api/dto"
	"github.com/supercivilization/membership-service/internal/auth"
	"github.com/supercivilization/membership-service/internal/service"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

// InvitesHandler exposes invite issuance and validation endpoints.
type InvitesHandler struct {
	invites *service.InviteService
}

// NewInvitesHandler constructs handler.
func NewInvitesHandler(inviteService *service.InviteService) *InvitesHandler {
	return &InvitesHandler{invites: inviteService}
}

// IssueInvite handles POST /invites.
func (h *InvitesHandler) IssueInvite(c *fiber.Ctx) error {
	profile, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.IssueInviteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	invite, err := h.invites.IssueInvite(c.Context(), profile, req.TTLHours)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewInviteResponse(invite)})
}

// ListInvites handles GET /invites.
func (h *InvitesHandler) ListInvites(c *fiber.Ctx) error {
	profile, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	invites, err := h.invites.ListInvites(c.Context(), profile.ID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		items = append(items, dto.NewInviteResponse(&invites[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ValidateInvite handles GET /invites/validate?code=XXXX. Unauthenticated so
// prospective members can check a code before signup; throttled per client
// address.
func (h *InvitesHandler) ValidateInvite(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return apperrors.NewValidationError("code query parameter required", nil)
	}

	result, err := h.invites.ValidateInvite(c.Context(), c.IP(), code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
