package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/decision"
	"github.com/cubanhacks/ticket-bot/internal/dispatch"
	"github.com/cubanhacks/ticket-bot/internal/domain"
	"github.com/cubanhacks/ticket-bot/internal/events"
	"github.com/cubanhacks/ticket-bot/internal/observability"
	"github.com/cubanhacks/ticket-bot/internal/store"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

// ResolutionDependencies bundles collaborators for ResolutionService.
type ResolutionDependencies struct {
	Store       *store.Store
	Fulfillment *FulfillmentService
	Dispatcher  *dispatch.Dispatcher
	Events      events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// ResolutionService applies administrator decisions. Every ingestion path
// (quoted replies, legacy commands, the HTTP process endpoint) funnels into
// Resolve, so a ticket can only ever be processed once.
type ResolutionService struct {
	deps ResolutionDependencies
}

// NewResolutionService constructs the service.
func NewResolutionService(deps ResolutionDependencies) *ResolutionService {
	return &ResolutionService{deps: deps}
}

// Resolve removes the ticket, confirms the decision in the channel and runs
// the fulfillment or rejection branch. An unknown ticket ID is a not-found
// with no side effects.
func (s *ResolutionService) Resolve(ctx context.Context, ev decision.Event) (*domain.Ticket, error) {
	ticket, ok := s.deps.Store.Resolve(ev.TicketID, ev.Decision, ev.Actor)
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ev.TicketID})
	}

	s.deps.Metrics.RecordTicketResolved()
	s.deps.Logger.Info("ticket resolved",
		zap.Int("ticket_id", ticket.ID),
		zap.String("decision", string(ev.Decision)),
		zap.String("actor", ev.Actor))

	// Channel confirmation is best effort; the decision already happened.
	if ev.ChannelID != "" {
		confirmation := buildDecisionConfirmation(ticket.ID, ev.Decision, ev.Actor)
		if err := s.deps.Dispatcher.SendText(ctx, ev.ChannelID, confirmation, dispatch.DefaultAttempts); err != nil {
			s.deps.Logger.Warn("failed to confirm decision in channel",
				zap.Int("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	switch ev.Decision {
	case domain.DecisionApproved:
		if err := s.deps.Fulfillment.Fulfill(ctx, ticket); err != nil {
			s.deps.Logger.Error("fulfillment failed",
				zap.Int("ticket_id", ticket.ID), zap.Error(err))
		}
	case domain.DecisionRejected:
		if err := s.deps.Fulfillment.Reject(ctx, ticket); err != nil {
			s.deps.Logger.Error("rejection notice failed",
				zap.Int("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	if s.deps.Events != nil {
		_ = s.deps.Events.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketResolved,
			TicketID:  ticket.ID,
			Actor:     ev.Actor,
			Timestamp: time.Now(),
			Payload:   events.TicketResolvedPayload{Decision: string(ev.Decision)},
		})
	}

	return &ticket, nil
}
