package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supercivilization/membership-service/internal/api/dto"
	"github.com/supercivilization/membership-service/internal/auth"
	"github.com/supercivilization/membership-service/internal/domain"
	"github.com/supercivilization/membership-service/internal/repository"
	"github.com/supercivilization/membership-service/internal/service"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

// AdminHandler exposes role-gated dashboard endpoints.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

func adminPrincipal(c *fiber.Ctx) (*domain.Profile, error) {
	profile, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return profile, nil
}

// UpdateUserRole handles PATCH /admin/users/:id/role.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	actor, err := adminPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Role == "" {
		return apperrors.NewValidationError("role required", nil)
	}

	target, err := h.admin.UpdateUserRole(c.Context(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(target)})
}

// BanUser handles POST /admin/users/:id/ban.
func (h *AdminHandler) BanUser(c *fiber.Ctx) error {
	actor, err := adminPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.BanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	target, err := h.admin.BanUser(c.Context(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(target)})
}

// GetStats handles GET /admin/stats.
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	actor, err := adminPrincipal(c)
	if err != nil {
		return err
	}

	stats, err := h.admin.GetAdminStats(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ListMembers handles GET /admin/users.
func (h *AdminHandler) ListMembers(c *fiber.Ctx) error {
	actor, err := adminPrincipal(c)
	if err != nil {
		return err
	}

	filter := repository.ProfileFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := domain.ProfileStatus(status)
		if !domain.ValidStatus(s) {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
		filter.Status = &s
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		if !domain.ValidRole(r) {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": role})
		}
		filter.Role = &r
	}

	members, err := h.admin.ListMembers(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ProfileResponse, 0, len(members))
	for i := range members {
		items = append(items, dto.NewProfileResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAuditLog handles GET /admin/logs.
func (h *AdminHandler) ListAuditLog(c *fiber.Ctx) error {
	actor, err := adminPrincipal(c)
	if err != nil {
		return err
	}

	entries, err := h.admin.ListAuditLog(c.Context(), actor, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.AdminLogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewAdminLogResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
