package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusSubmitted  ComplaintStatus = "submitted"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusClosed     ComplaintStatus = "closed"
)

// ComplaintPriority enumerates urgency levels.
type ComplaintPriority string

const (
	ComplaintPriorityLow    ComplaintPriority = "low"
	ComplaintPriorityMedium ComplaintPriority = "medium"
	ComplaintPriorityHigh   ComplaintPriority = "high"
	ComplaintPriorityUrgent ComplaintPriority = "urgent"
)

// ReporterMode describes how much identity the submitter disclosed.
type ReporterMode string

const (
	ReporterAnonymous    ReporterMode = "anonymous"
	ReporterPseudonymous ReporterMode = "pseudonymous"
	ReporterVerified     ReporterMode = "verified"
)

// Location captures where the grievance occurred.
type Location struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// AttachmentMeta is metadata for an uploaded file; storage itself is external.
type AttachmentMeta struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// IdentitySnapshot is attached only when the reporter mode is verified.
// It is admin-only data and never appears in the public tracking projection.
type IdentitySnapshot struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// StatusEntry is one immutable audit record of a status change.
type StatusEntry struct {
	Status    ComplaintStatus
	Note      string
	ActorID   *string
	CreatedAt time.Time
}

// Complaint is the aggregate for citizen grievances. The public identifier is
// assigned once at creation and is the only reference a citizen retains.
type Complaint struct {
	ID          string
	PublicID    string
	Title       string
	Category    string
	Department  string
	Description string
	Priority    ComplaintPriority
	Status      ComplaintStatus
	Reporter    ReporterMode
	Contact     string
	AccountID   *string
	Location    Location
	Attachments []AttachmentMeta
	Identity    *IdentitySnapshot
	History     []StatusEntry
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
}

// allowedTransitions is the single source of truth for the state machine.
// Skip transitions to resolved are permitted, as is a defensive reopen from
// closed; same-status transitions are handled separately (note-only entries).
var allowedTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintStatusSubmitted:  {ComplaintStatusInProgress, ComplaintStatusResolved, ComplaintStatusClosed},
	ComplaintStatusInProgress: {ComplaintStatusResolved, ComplaintStatusClosed},
	ComplaintStatusResolved:   {ComplaintStatusInProgress, ComplaintStatusClosed},
	ComplaintStatusClosed:     {ComplaintStatusInProgress},
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s ComplaintStatus) bool {
	switch s {
	case ComplaintStatusSubmitted, ComplaintStatusInProgress, ComplaintStatusResolved, ComplaintStatusClosed:
		return true
	}
	return false
}

// AllowedFrom returns the set of statuses reachable from current.
func AllowedFrom(current ComplaintStatus) []ComplaintStatus {
	return allowedTransitions[current]
}

// CanTransition reports whether next is reachable from current. A no-op
// transition to the same status is always permitted so administrators can
// attach note-only annotations to the trail.
func CanTransition(current, next ComplaintStatus) bool {
	if !ValidStatus(next) {
		return false
	}
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
