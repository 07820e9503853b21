package events

import (
	"time"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOTPIssued              EventType = "otp_issued"
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Payload   interface{} `json:"payload"`
}

// OTPIssuedPayload carries delivery details for the SMS gateway; the code
// itself is included only for the gateway, never for API responses.
type OTPIssuedPayload struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	PublicID string                   `json:"public_id"`
	Title    string                   `json:"title"`
	Category string                   `json:"category"`
	Priority domain.ComplaintPriority `json:"priority"`
	Reporter domain.ReporterMode      `json:"reporter_mode"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	PublicID  string                 `json:"public_id"`
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Note      string                 `json:"note,omitempty"`
}
