package dto

import (
	"time"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Title         string                   `json:"title"`
	Category      string                   `json:"category"`
	Department    string                   `json:"department"`
	Description   string                   `json:"description"`
	Priority      domain.ComplaintPriority `json:"priority"`
	ReporterType  domain.ReporterMode      `json:"reporterType"`
	ContactMethod string                   `json:"contactMethod"`
	Location      domain.Location          `json:"location"`
	Attachments   []domain.AttachmentMeta  `json:"attachments"`
}

// TransitionRequest payload for the admin status endpoint.
type TransitionRequest struct {
	Status domain.ComplaintStatus `json:"status"`
	Notes  string                 `json:"notes"`
}

// PublicHistoryEntry is the citizen-visible view of a status change; actor
// account references are admin-only.
type PublicHistoryEntry struct {
	Status    domain.ComplaintStatus `json:"status"`
	Note      string                 `json:"note"`
	Timestamp time.Time              `json:"timestamp"`
}

// PublicComplaintResponse is the unauthenticated tracking projection. It
// never carries identity snapshots or internal account references.
type PublicComplaintResponse struct {
	ComplaintID string                   `json:"complaintId"`
	Title       string                   `json:"title"`
	Category    string                   `json:"category"`
	Department  string                   `json:"department,omitempty"`
	Status      domain.ComplaintStatus   `json:"status"`
	Priority    domain.ComplaintPriority `json:"priority"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
	ResolvedAt  *time.Time               `json:"resolvedAt,omitempty"`
	History     []PublicHistoryEntry     `json:"statusHistory"`
}

// AdminHistoryEntry includes the acting account.
type AdminHistoryEntry struct {
	Status    domain.ComplaintStatus `json:"status"`
	Note      string                 `json:"note"`
	ActorID   *string                `json:"actorId,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// AdminComplaintResponse is the privileged projection.
type AdminComplaintResponse struct {
	ComplaintID string                   `json:"complaintId"`
	Title       string                   `json:"title"`
	Category    string                   `json:"category"`
	Department  string                   `json:"department,omitempty"`
	Description string                   `json:"description"`
	Status      domain.ComplaintStatus   `json:"status"`
	Priority    domain.ComplaintPriority `json:"priority"`
	Reporter    domain.ReporterMode      `json:"reporterType"`
	Contact     string                   `json:"contactMethod,omitempty"`
	AccountID   *string                  `json:"accountId,omitempty"`
	Location    domain.Location          `json:"location"`
	Attachments []domain.AttachmentMeta  `json:"attachments,omitempty"`
	Identity    *domain.IdentitySnapshot `json:"identitySnapshot,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
	ResolvedAt  *time.Time               `json:"resolvedAt,omitempty"`
	History     []AdminHistoryEntry      `json:"statusHistory"`
}

// NewPublicComplaintResponse strips admin-only fields from the aggregate.
func NewPublicComplaintResponse(c *domain.Complaint) PublicComplaintResponse {
	history := make([]PublicHistoryEntry, 0, len(c.History))
	for _, entry := range c.History {
		history = append(history, PublicHistoryEntry{
			Status:    entry.Status,
			Note:      entry.Note,
			Timestamp: entry.CreatedAt,
		})
	}
	return PublicComplaintResponse{
		ComplaintID: c.PublicID,
		Title:       c.Title,
		Category:    c.Category,
		Department:  c.Department,
		Status:      c.Status,
		Priority:    c.Priority,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		ResolvedAt:  c.ResolvedAt,
		History:     history,
	}
}

// NewAdminComplaintResponse maps the full aggregate.
func NewAdminComplaintResponse(c *domain.Complaint) AdminComplaintResponse {
	history := make([]AdminHistoryEntry, 0, len(c.History))
	for _, entry := range c.History {
		history = append(history, AdminHistoryEntry{
			Status:    entry.Status,
			Note:      entry.Note,
			ActorID:   entry.ActorID,
			Timestamp: entry.CreatedAt,
		})
	}
	return AdminComplaintResponse{
		ComplaintID: c.PublicID,
		Title:       c.Title,
		Category:    c.Category,
		Department:  c.Department,
		Description: c.Description,
		Status:      c.Status,
		Priority:    c.Priority,
		Reporter:    c.Reporter,
		Contact:     c.Contact,
		AccountID:   c.AccountID,
		Location:    c.Location,
		Attachments: c.Attachments,
		Identity:    c.Identity,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		ResolvedAt:  c.ResolvedAt,
		History:     history,
	}
}
