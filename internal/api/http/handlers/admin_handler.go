package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AdminHandler manages organization, team, user and escalation administration.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// CreateOrganization POST /admin/organizations.
func (h *AdminHandler) CreateOrganization(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	org, err := h.service.CreateOrganization(c.Context(), principal.Actor, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.OrganizationResponseFrom(org)})
}

// ListOrganizations GET /admin/organizations.
func (h *AdminHandler) ListOrganizations(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := parsePage(c)
	orgs, err := h.service.ListOrganizations(c.Context(), principal.Actor, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		items = append(items, dto.OrganizationResponseFrom(&orgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTeam POST /admin/teams.
func (h *AdminHandler) CreateTeam(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OrganizationID == "" || strings.TrimSpace(req.Tag) == "" || strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("organization_id, tag, name required", nil)
	}

	team, err := h.service.CreateTeam(c.Context(), principal.Actor, req.OrganizationID, req.Tag, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TeamResponseFrom(team)})
}

// ListTeams GET /admin/organizations/:id/teams.
func (h *AdminHandler) ListTeams(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	teams, err := h.service.ListTeams(c.Context(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, dto.TeamResponseFrom(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetUserRole PUT /admin/users/:id/role.
func (h *AdminHandler) SetUserRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.service.SetUserRole(c.Context(), principal.Actor, c.Params("id"), req.Role, req.TeamTag)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserResponseFrom(user)})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := parsePage(c)
	users, err := h.service.ListUsers(c.Context(), principal.Actor, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.UserResponseFrom(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListEscalations GET /admin/escalations.
func (h *AdminHandler) ListEscalations(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var status *domain.EscalationStatus
	if val := strings.TrimSpace(c.Query("status")); val != "" {
		s := domain.EscalationStatus(val)
		status = &s
	}
	limit, offset := parsePage(c)
	escalations, err := h.service.ListEscalations(c.Context(), principal.Actor, status, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(escalations))
	for i := range escalations {
		items = append(items, dto.EscalationResponseFrom(&escalations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parsePage(c *fiber.Ctx) (limit, offset int) {
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), 50)
	return pageSize, (page - 1) * pageSize
}
