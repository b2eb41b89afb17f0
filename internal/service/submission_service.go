package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/dedup"
	"github.com/cubanhacks/ticket-bot/internal/dispatch"
	"github.com/cubanhacks/ticket-bot/internal/domain"
	"github.com/cubanhacks/ticket-bot/internal/events"
	"github.com/cubanhacks/ticket-bot/internal/observability"
	"github.com/cubanhacks/ticket-bot/internal/routing"
	"github.com/cubanhacks/ticket-bot/internal/store"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

// SubmissionDependencies bundles collaborators for SubmissionService.
type SubmissionDependencies struct {
	Store      *store.Store
	Guard      *dedup.Guard
	Routes     *routing.Table
	Dispatcher *dispatch.Dispatcher
	Events     events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// SubmissionService turns storefront payment reports into pending tickets
// announced in the right country channel.
type SubmissionService struct {
	deps SubmissionDependencies
	now  func() time.Time
}

// NewSubmissionService constructs the service.
func NewSubmissionService(deps SubmissionDependencies) *SubmissionService {
	return &SubmissionService{deps: deps, now: time.Now}
}

// SubmissionInput is a raw payment report.
type SubmissionInput struct {
	Phone       string
	Product     string
	Proof       string
	PhotoURL    string
	Duration    string
	Amount      string
	WAID        string
	ExternalID  string
	PartnerUser string
}

// SubmissionResult reports where the ticket landed.
type SubmissionResult struct {
	TicketID  int
	Country   string
	ChannelID string
	Prefix    string
}

// Submit validates the report, blocks duplicates, announces the ticket in
// the country channel and registers it. The ticket is only stored after the
// channel message goes out; a failed announcement leaves no trace.
func (s *SubmissionService) Submit(ctx context.Context, in SubmissionInput) (*SubmissionResult, error) {
	if strings.TrimSpace(in.Phone) == "" || strings.TrimSpace(in.Product) == "" {
		return nil, apperrors.NewValidationError("Numero and Producto are required", nil)
	}

	if res := s.deps.Guard.Check(in.Phone, in.Product, in.Proof); res.Duplicate {
		s.deps.Metrics.RecordDuplicateBlocked()
		s.publish(ctx, events.Event{
			Type:     events.EventDuplicateBlocked,
			TicketID: res.PriorTicketID,
			Payload: events.DuplicateBlockedPayload{
				PriorTicketID:  res.PriorTicketID,
				ElapsedMinutes: res.ElapsedMinutes,
			},
		})
		return nil, apperrors.NewDuplicateReport(
			fmt.Sprintf("reporte duplicado, ya procesado hace %d minutos", res.ElapsedMinutes),
			map[string]any{
				"prior_ticket_id": res.PriorTicketID,
				"elapsed_minutes": res.ElapsedMinutes,
			})
	}

	prefix := routing.ResolvePrefix(in.Phone)
	route, ok := s.deps.Routes.Route(prefix)
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("no channel configured for prefix %q", prefix))
	}

	imageURL, proofText := extractProofImage(in.PhotoURL, in.Proof)

	waID := in.WAID
	if waID == "" {
		waID = in.Phone
	}

	ticket := domain.Ticket{
		ID:            s.deps.Store.NewID(),
		Phone:         in.Phone,
		Product:       in.Product,
		Proof:         proofText,
		ProofImageURL: imageURL,
		Duration:      in.Duration,
		Amount:        in.Amount,
		Country:       route.Country,
		ChannelID:     route.ChannelID,
		Prefix:        prefix,
		WAID:          waID,
		ExternalID:    in.ExternalID,
		PartnerUser:   in.PartnerUser,
		CreatedAt:     s.now(),
	}

	msg := buildTicketMessage(ticket, imageURL != "")

	var err error
	if imageURL != "" {
		err = s.deps.Dispatcher.SendImage(ctx, route.ChannelID, imageURL, msg)
	} else {
		err = s.deps.Dispatcher.SendText(ctx, route.ChannelID, msg, dispatch.DefaultAttempts)
	}
	if err != nil {
		s.deps.Logger.Error("failed to announce ticket",
			zap.Int("ticket_id", ticket.ID),
			zap.String("channel", route.ChannelID),
			zap.Error(err))
		return nil, err
	}

	s.deps.Store.Put(ticket)
	s.deps.Guard.Record(in.Phone, in.Product, in.Proof, ticket.ID)
	s.deps.Metrics.RecordTicketCreated()

	s.deps.Logger.Info("ticket created",
		zap.Int("ticket_id", ticket.ID),
		zap.String("country", route.Country),
		zap.String("prefix", prefix),
		zap.String("product", in.Product))

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Product:   ticket.Product,
			Country:   ticket.Country,
			ChannelID: ticket.ChannelID,
			Prefix:    ticket.Prefix,
		},
	})

	return &SubmissionResult{
		TicketID:  ticket.ID,
		Country:   route.Country,
		ChannelID: route.ChannelID,
		Prefix:    prefix,
	}, nil
}

func (s *SubmissionService) publish(ctx context.Context, event events.Event) {
	if s.deps.Events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.deps.Events.Publish(ctx, event)
}
