package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-portal/internal/api/dto"
	"github.com/spec-kit/grievance-portal/internal/auth"
	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/repository"
	"github.com/spec-kit/grievance-portal/internal/service"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

// AdminComplaintsHandler serves the administrator workflow.
type AdminComplaintsHandler struct {
	service *service.ComplaintService
}

// NewAdminComplaintsHandler constructs handler.
func NewAdminComplaintsHandler(complaintService *service.ComplaintService) *AdminComplaintsHandler {
	return &AdminComplaintsHandler{service: complaintService}
}

// List GET /admin/complaints.
func (h *AdminComplaintsHandler) List(c *fiber.Ctx) error {
	filter := repository.ComplaintFilter{}

	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.ComplaintPriority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTimeQuery(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTimeQuery(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseIntQuery(c.Query("page"), 1)
	pageSize := parseIntQuery(c.Query("page_size"), 20)
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	complaints, err := h.service.ListAdmin(c.Context(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.AdminComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, dto.NewAdminComplaintResponse(&complaints[i]))
	}
	return respond(c, http.StatusOK, "complaints retrieved", fiber.Map{
		"complaints": items,
	})
}

// Get GET /admin/complaints/:id — full projection including identity snapshot.
func (h *AdminComplaintsHandler) Get(c *fiber.Ctx) error {
	complaint, err := h.service.Track(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "complaint found", fiber.Map{
		"complaint": dto.NewAdminComplaintResponse(complaint),
	})
}

// UpdateStatus PUT /complaints/:id/status.
func (h *AdminComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	complaint, err := h.service.Transition(c.Context(), c.Params("id"), req.Status, req.Notes, &principal.AccountID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "complaint status updated", fiber.Map{
		"complaintId": complaint.PublicID,
		"status":      complaint.Status,
		"updatedAt":   complaint.UpdatedAt,
	})
}

func parseTimeQuery(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}
