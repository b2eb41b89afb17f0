package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/events"
)

// NotificationService logs domain events as an operational audit trail.
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
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
	n.dispatcher.Subscribe(events.EventSaleFulfilled, n.handleSaleFulfilled)
	n.dispatcher.Subscribe(events.EventDuplicateBlocked, n.handleDuplicateBlocked)
	n.dispatcher.Subscribe(events.EventDeliveryFailed, n.handleDeliveryFailed)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketResolved",
		zap.Int("ticket_id", event.TicketID),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSaleFulfilled(ctx context.Context, event events.Event) error {
	n.logger.Info("SaleFulfilled", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleDuplicateBlocked(ctx context.Context, event events.Event) error {
	n.logger.Warn("DuplicateBlocked", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleDeliveryFailed(ctx context.Context, event events.Event) error {
	n.logger.Error("DeliveryFailed", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}
