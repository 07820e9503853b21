package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-portal/internal/api/dto"
	"github.com/spec-kit/grievance-portal/internal/auth"
	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/service"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

// ComplaintsHandler serves citizen-facing complaint endpoints.
type ComplaintsHandler struct {
	service *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService}
}

// Create POST /complaints. Authentication is optional; an authenticated
// caller may submit in verified mode, which snapshots their identity.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateComplaintInput{
		Title:       req.Title,
		Category:    req.Category,
		Department:  req.Department,
		Description: req.Description,
		Priority:    req.Priority,
		Reporter:    req.ReporterType,
		Contact:     req.ContactMethod,
		Location:    req.Location,
		Attachments: req.Attachments,
	}

	var actorID *string
	if principal, ok := auth.PrincipalFromContext(c); ok {
		actorID = &principal.AccountID
		if req.ReporterType == domain.ReporterVerified {
			if !principal.Verified {
				return apperrors.NewForbidden("verified reporter mode requires a verified account")
			}
			snapshot := &domain.IdentitySnapshot{
				AccountID: principal.AccountID,
				Name:      principal.Name,
			}
			if principal.Account != nil {
				if principal.Account.Phone != nil {
					snapshot.Phone = *principal.Account.Phone
				}
				if principal.Account.Email != nil {
					snapshot.Email = *principal.Account.Email
				}
			}
			input.Identity = snapshot
		}
	} else if req.ReporterType == domain.ReporterVerified {
		return apperrors.NewUnauthorized("verified reporter mode requires authentication")
	}

	complaint, err := h.service.Create(c.Context(), input, actorID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "complaint registered successfully", fiber.Map{
		"complaintId": complaint.PublicID,
		"status":      complaint.Status,
	})
}

// CreateAnonymous POST /complaints/anonymous; never attaches an account.
func (h *ComplaintsHandler) CreateAnonymous(c *fiber.Ctx) error {
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ReporterType == domain.ReporterVerified {
		return apperrors.NewValidationError("anonymous endpoint does not accept verified reporter mode", nil)
	}

	complaint, err := h.service.Create(c.Context(), service.CreateComplaintInput{
		Title:       req.Title,
		Category:    req.Category,
		Department:  req.Department,
		Description: req.Description,
		Priority:    req.Priority,
		Reporter:    domain.ReporterAnonymous,
		Contact:     req.ContactMethod,
		Location:    req.Location,
		Attachments: req.Attachments,
	}, nil)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "complaint registered successfully", fiber.Map{
		"complaintId": complaint.PublicID,
		"status":      complaint.Status,
	})
}

// Track GET /complaints/track/:id — public, no authentication.
func (h *ComplaintsHandler) Track(c *fiber.Ctx) error {
	publicID := strings.TrimSpace(c.Params("id"))
	if publicID == "" {
		return apperrors.NewValidationError("complaint id required", nil)
	}

	complaint, err := h.service.Track(c.Context(), publicID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "complaint found", fiber.Map{
		"complaint": dto.NewPublicComplaintResponse(complaint),
	})
}

// ListMine GET /complaints — the caller's own submissions.
func (h *ComplaintsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	page := parseIntQuery(c.Query("page"), 1)
	pageSize := parseIntQuery(c.Query("page_size"), 20)
	complaints, err := h.service.ListForAccount(c.Context(), principal.AccountID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}

	items := make([]dto.PublicComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, dto.NewPublicComplaintResponse(&complaints[i]))
	}
	return respond(c, http.StatusOK, "complaints retrieved", fiber.Map{
		"complaints": items,
	})
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
