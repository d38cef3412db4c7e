package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// StaffTicketsHandler manages staff-side ticket operations.
type StaffTicketsHandler struct {
	tickets *service.TicketService
	status  *service.StatusService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(tickets *service.TicketService, status *service.StatusService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: tickets, status: status}
}

// SetStatus POST /staff/tickets/:id/status.
func (h *StaffTicketsHandler) SetStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.status.SetStatus(c.Context(), principal.Actor, c.Params("id"), req.Status, req.Version)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}

// AssignTicket POST /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) AssignTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}

	ticket, err := h.tickets.AssignTicket(c.Context(), principal.Actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}

// ExportCSV GET /staff/tickets/export.
func (h *StaffTicketsHandler) ExportCSV(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	data, err := h.tickets.ExportCSV(c.Context(), principal.Actor, parseTicketQuery(c))
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("tickets-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(data)
}
