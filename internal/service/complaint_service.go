package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/events"
	"github.com/spec-kit/grievance-portal/internal/observability"
	"github.com/spec-kit/grievance-portal/internal/repository"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

const submittedNote = "Complaint submitted successfully"

// publicIDAttempts bounds collision retries on the generated identifier.
const publicIDAttempts = 5

// ComplaintService coordinates the complaint lifecycle state machine.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// CreateComplaintInput describes the submission payload.
type CreateComplaintInput struct {
	Title       string
	Category    string
	Department  string
	Description string
	Priority    domain.ComplaintPriority
	Reporter    domain.ReporterMode
	Contact     string
	Location    domain.Location
	Attachments []domain.AttachmentMeta
	Identity    *domain.IdentitySnapshot
}

// Create validates the payload, assigns a unique public identifier and
// records the first history entry. The public identifier is the only durable
// reference the citizen retains, so generation retries on collision and never
// fails silently.
func (s *ComplaintService) Create(ctx context.Context, input CreateComplaintInput, actorID *string) (*domain.Complaint, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	if input.Title == "" || input.Category == "" || input.Description == "" {
		return nil, apperrors.NewValidationError("title, category and description are required", nil)
	}

	if input.Reporter == "" {
		input.Reporter = domain.ReporterAnonymous
	}
	switch input.Reporter {
	case domain.ReporterAnonymous, domain.ReporterPseudonymous:
	case domain.ReporterVerified:
		if input.Identity == nil {
			return nil, apperrors.NewValidationError("verified reporter mode requires an identity snapshot", nil)
		}
	default:
		return nil, apperrors.NewValidationError("unknown reporter mode", map[string]any{"reporterType": input.Reporter})
	}
	if input.Reporter != domain.ReporterVerified {
		input.Identity = nil
	}

	if input.Priority == "" {
		input.Priority = domain.ComplaintPriorityMedium
	}

	complaint := &domain.Complaint{
		Title:       input.Title,
		Category:    input.Category,
		Department:  input.Department,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      domain.ComplaintStatusSubmitted,
		Reporter:    input.Reporter,
		Contact:     input.Contact,
		AccountID:   actorID,
		Location:    input.Location,
		Attachments: input.Attachments,
		Identity:    input.Identity,
	}
	first := domain.StatusEntry{
		Status:  domain.ComplaintStatusSubmitted,
		Note:    submittedNote,
		ActorID: actorID,
	}

	var err error
	for attempt := 0; attempt < publicIDAttempts; attempt++ {
		complaint.PublicID = generatePublicID()
		err = s.complaints.Create(ctx, complaint, first)
		if err == nil {
			break
		}
		if !isUniqueViolation(err) {
			return nil, apperrors.NewStoreUnavailable(err)
		}
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.metrics.RecordDomainEvent("complaint_created")
	s.publish(ctx, events.Event{
		Type:    events.EventComplaintCreated,
		ActorID: actorID,
		Payload: events.ComplaintCreatedPayload{
			PublicID: complaint.PublicID,
			Title:    complaint.Title,
			Category: complaint.Category,
			Priority: complaint.Priority,
			Reporter: complaint.Reporter,
		},
	})
	return complaint, nil
}

// Transition moves a complaint to newStatus and appends the audit entry in a
// single atomic store operation. Same-status transitions are recorded as
// note-only annotations. resolved_at is set on the first entry into resolved
// and never overwritten.
func (s *ComplaintService) Transition(ctx context.Context, publicID string, newStatus domain.ComplaintStatus, note string, actorID *string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaintId": publicID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	if !domain.CanTransition(complaint.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(complaint.Status), string(newStatus))
	}

	entry := domain.StatusEntry{
		Status:  newStatus,
		Note:    note,
		ActorID: actorID,
	}
	updatedAt, err := s.complaints.Transition(ctx, complaint.ID, complaint.Status, entry)
	if err != nil {
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			return nil, apperrors.NewConflict("complaint was updated concurrently, retry", nil)
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	oldStatus := complaint.Status
	complaint.Status = newStatus
	complaint.UpdatedAt = updatedAt
	if newStatus == domain.ComplaintStatusResolved && complaint.ResolvedAt == nil {
		resolvedAt := updatedAt
		complaint.ResolvedAt = &resolvedAt
	}
	entry.CreatedAt = updatedAt
	complaint.History = append(complaint.History, entry)

	s.metrics.RecordDomainEvent("complaint_transitioned")
	s.publish(ctx, events.Event{
		Type:    events.EventComplaintStatusChanged,
		ActorID: actorID,
		Payload: events.ComplaintStatusChangedPayload{
			PublicID:  complaint.PublicID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Note:      note,
		},
	})
	return complaint, nil
}

// Track returns the complaint for the public, unauthenticated projection.
// Handlers must render it without the identity snapshot or account reference.
func (s *ComplaintService) Track(ctx context.Context, publicID string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaintId": publicID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return complaint, nil
}

// ListForAccount returns the caller's own complaints.
func (s *ComplaintService) ListForAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Complaint, error) {
	complaints, err := s.complaints.ListWithFilter(ctx, repository.ComplaintFilter{
		AccountID: &accountID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return complaints, nil
}

// ListAdmin returns complaints matching the administrator filter.
func (s *ComplaintService) ListAdmin(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	complaints, err := s.complaints.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return complaints, nil
}

func (s *ComplaintService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generatePublicID() string {
	return "GRV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
