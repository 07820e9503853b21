package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/events"
)

// NotificationService reacts to domain events, logging the citizen-facing
// notifications the portal would emit (status updates, receipts).
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleComplaintCreated)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleComplaintStatusChanged)
}

func (n *NotificationService) handleComplaintCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintCreatedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("ComplaintCreated",
		zap.String("complaint_id", payload.PublicID),
		zap.String("category", payload.Category),
		zap.String("priority", string(payload.Priority)))
	return nil
}

func (n *NotificationService) handleComplaintStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintStatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("ComplaintStatusChanged",
		zap.String("complaint_id", payload.PublicID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
	return nil
}
