package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supercivilization/membership-service/internal/api/http/handlers"
	"github.com/supercivilization/membership-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Invites        *handlers.InvitesHandler
	Verifications  *handlers.VerificationsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/email/verify", cfg.Auth.VerifyEmail)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	authProtected.Get("/me", cfg.Auth.Me)
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)

	// Validation stays public so prospective members can check a code before
	// signup; it is throttled per client address inside the service.
	app.Get("/invites/validate", cfg.Invites.ValidateInvite)

	invites := app.Group("/invites", cfg.AuthMiddleware.Handle, auth.RequireActive())
	invites.Post("", cfg.Invites.IssueInvite)
	invites.Get("", cfg.Invites.ListInvites)

	verifications := app.Group("/verifications", cfg.AuthMiddleware.Handle, auth.RequireActive())
	verifications.Post("", cfg.Verifications.RecordVerification)
	verifications.Get("/:invitee_id", cfg.Verifications.ListVerifications)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/stats", cfg.Admin.GetStats)
	admin.Get("/users", cfg.Admin.ListMembers)
	admin.Patch("/users/:id/role", cfg.Admin.UpdateUserRole)
	admin.Post("/users/:id/ban", cfg.Admin.BanUser)
	admin.Get("/logs", cfg.Admin.ListAuditLog)
}
