package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Admin          *handlers.AdminHandler
	Stream         *handlers.StreamHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)
	authProtected.Get("/me", cfg.Auth.Me)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Post("/:id/messages", cfg.Tickets.PostMessage)
	tickets.Get("/:id/presence", cfg.Tickets.Presence)
	tickets.Get("/:id/events", cfg.Stream.Stream)
	tickets.Post("/:id/resolution", cfg.Tickets.ChooseResolution)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Post("/tickets/:id/status", cfg.StaffTickets.SetStatus)
	staff.Post("/tickets/:id/assign", cfg.StaffTickets.AssignTicket)
	staff.Get("/tickets/export", cfg.StaffTickets.ExportCSV)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/organizations", cfg.Admin.CreateOrganization)
	admin.Get("/organizations", cfg.Admin.ListOrganizations)
	admin.Get("/organizations/:id/teams", cfg.Admin.ListTeams)
	admin.Post("/teams", cfg.Admin.CreateTeam)
	admin.Put("/users/:id/role", cfg.Admin.SetUserRole)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/escalations", cfg.Admin.ListEscalations)
}
