package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/backend"
	"github.com/cubanhacks/ticket-bot/internal/catalog"
	"github.com/cubanhacks/ticket-bot/internal/dispatch"
	"github.com/cubanhacks/ticket-bot/internal/domain"
	"github.com/cubanhacks/ticket-bot/internal/events"
	"github.com/cubanhacks/ticket-bot/internal/rotation"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

// FulfillmentDependencies bundles collaborators for FulfillmentService.
type FulfillmentDependencies struct {
	Backend           *backend.Client
	Rotator           *rotation.Rotator
	Dispatcher        *dispatch.Dispatcher
	Events            events.Dispatcher
	Logger            *zap.Logger
	DiamondsChannelID string
	ClientGroupLink   string
	SupportLink       string
}

// FulfillmentService carries out the post-approval delivery branch for a
// ticket and the warning message on rejection. Whatever happens, the buyer
// receives a terminal message telling them where they stand.
type FulfillmentService struct {
	deps FulfillmentDependencies
}

// NewFulfillmentService constructs the service.
func NewFulfillmentService(deps FulfillmentDependencies) *FulfillmentService {
	return &FulfillmentService{deps: deps}
}

// Fulfill runs the delivery branch matching the ticket's product category.
func (f *FulfillmentService) Fulfill(ctx context.Context, t domain.Ticket) error {
	switch catalog.Category(t.Product) {
	case domain.CategorySocio:
		return f.fulfillSocio(ctx, t)
	case domain.CategoryDiamonds:
		return f.fulfillDiamonds(ctx, t)
	case domain.CategoryManual:
		return f.fulfillManual(ctx, t)
	default:
		return f.fulfillStandard(ctx, t)
	}
}

// Reject warns the buyer that the proof was refused.
func (f *FulfillmentService) Reject(ctx context.Context, t domain.Ticket) error {
	msg := buildRejectionWarning(t)
	if err := f.deps.Dispatcher.SendText(ctx, t.WAID, msg, dispatch.DefaultAttempts); err != nil {
		f.deps.Logger.Error("failed to send rejection warning",
			zap.Int("ticket_id", t.ID), zap.Error(err))
		return err
	}
	return nil
}

func (f *FulfillmentService) fulfillStandard(ctx context.Context, t domain.Ticket) error {
	duration := catalog.DurationLabel(t.Duration)
	alias := catalog.TutorialAlias(t.Product)

	res, err := f.deps.Backend.FetchProduct(ctx, t.Product, duration, alias)
	if err != nil {
		f.deps.Logger.Error("license fetch failed",
			zap.Int("ticket_id", t.ID),
			zap.String("product", t.Product),
			zap.Error(err))
		f.publishFailure(ctx, t.ID, "license_fetch", err)
		return f.sendText(ctx, t.WAID, buildDeliveryError(t, err.Error(), f.deps.SupportLink))
	}

	agent, err := f.deps.Rotator.Next(ctx)
	if err != nil {
		f.deps.Logger.Warn("agent rotation failed", zap.Error(err))
	}

	productName := res.ProductName
	if productName == "" {
		productName = t.Product
	}

	msg := buildDeliveryMessage(productName, res.License, &agent, f.deps.ClientGroupLink)
	if err := f.sendText(ctx, t.WAID, msg); err != nil {
		f.publishFailure(ctx, t.ID, "buyer_delivery", err)
		return err
	}

	f.notifyAgent(ctx, agent, t, productName, res.License)

	f.publish(ctx, events.Event{
		Type:     events.EventSaleFulfilled,
		TicketID: t.ID,
		Payload: events.SaleFulfilledPayload{
			Product: productName,
			Agent:   agent.Name,
			Branch:  string(domain.CategoryStandard),
		},
	})
	return nil
}

func (f *FulfillmentService) fulfillSocio(ctx context.Context, t domain.Ticket) error {
	if t.PartnerUser == "" {
		f.deps.Logger.Warn("socio ticket without partner user", zap.Int("ticket_id", t.ID))
		return f.sendText(ctx, t.WAID, buildRechargeError(t.ID, "", "missing_user", f.deps.SupportLink))
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(t.Duration), 64)
	if err != nil || amount <= 0 {
		f.deps.Logger.Warn("invalid socio recharge amount",
			zap.Int("ticket_id", t.ID), zap.String("amount", t.Duration))
		return f.sendText(ctx, t.WAID, buildRechargeError(t.ID, t.PartnerUser, "amount", f.deps.SupportLink))
	}

	description := "Recarga socio automática - Ticket #" + strconv.Itoa(t.ID) + " - Bot WhatsApp"
	newBalance, err := f.deps.Backend.AddBalance(ctx, t.PartnerUser, amount, description)
	if err != nil {
		f.deps.Logger.Error("balance recharge failed",
			zap.Int("ticket_id", t.ID),
			zap.String("username", t.PartnerUser),
			zap.Error(err))
		f.publishFailure(ctx, t.ID, "balance_recharge", err)
		return f.sendText(ctx, t.WAID,
			buildRechargeError(t.ID, t.PartnerUser, rechargeFailureReason(err), f.deps.SupportLink))
	}

	f.publish(ctx, events.Event{
		Type:     events.EventSaleFulfilled,
		TicketID: t.ID,
		Payload:  events.SaleFulfilledPayload{Product: t.Product, Branch: string(domain.CategorySocio)},
	})
	return f.sendText(ctx, t.WAID, buildRechargeSuccess(t.ID, t.PartnerUser, amount, newBalance))
}

func (f *FulfillmentService) fulfillDiamonds(ctx context.Context, t domain.Ticket) error {
	msg := buildDiamondsNotice(t)
	if err := f.sendText(ctx, f.deps.DiamondsChannelID, msg); err != nil {
		f.publishFailure(ctx, t.ID, "diamonds_handoff", err)
		return err
	}
	f.publish(ctx, events.Event{
		Type:     events.EventSaleFulfilled,
		TicketID: t.ID,
		Payload:  events.SaleFulfilledPayload{Product: t.Product, Branch: string(domain.CategoryDiamonds)},
	})
	return nil
}

func (f *FulfillmentService) fulfillManual(ctx context.Context, t domain.Ticket) error {
	if err := f.sendText(ctx, t.WAID, buildManualValidation(t)); err != nil {
		f.publishFailure(ctx, t.ID, "manual_validation", err)
		return err
	}
	f.publish(ctx, events.Event{
		Type:     events.EventSaleFulfilled,
		TicketID: t.ID,
		Payload:  events.SaleFulfilledPayload{Product: t.Product, Branch: string(domain.CategoryManual)},
	})
	return nil
}

// notifyAgent tells the assigned agent about the sale. Failures never block
// the buyer's delivery; they are logged and dropped.
func (f *FulfillmentService) notifyAgent(ctx context.Context, agent domain.Agent, t domain.Ticket, productName, license string) {
	msg := buildAgentNotification(agent, t.WAID, productName, license, t.Amount)
	if err := f.deps.Dispatcher.SendText(ctx, agent.Phone, msg, 2); err != nil {
		f.deps.Logger.Warn("failed to notify agent",
			zap.String("agent", agent.Name),
			zap.Int("ticket_id", t.ID),
			zap.Error(err))
	}
}

func (f *FulfillmentService) sendText(ctx context.Context, dest, msg string) error {
	return f.deps.Dispatcher.SendText(ctx, dest, msg, dispatch.DefaultAttempts)
}

// rechargeFailureReason classifies a balance API error for the buyer-facing
// message.
func rechargeFailureReason(err error) string {
	de := apperrors.ToDomainError(err)
	msg := de.Message
	switch {
	case strings.Contains(msg, "API key") || strings.Contains(msg, "autenticación"):
		return "auth"
	case strings.Contains(msg, "no encontrado") || strings.Contains(msg, "not found"):
		return "user_not_found"
	case de.Code == "VALIDATION_FAILED":
		return "amount"
	default:
		return "generic"
	}
}

func (f *FulfillmentService) publish(ctx context.Context, event events.Event) {
	if f.deps.Events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = f.deps.Events.Publish(ctx, event)
}

func (f *FulfillmentService) publishFailure(ctx context.Context, ticketID int, stage string, err error) {
	f.publish(ctx, events.Event{
		Type:     events.EventDeliveryFailed,
		TicketID: ticketID,
		Payload:  events.DeliveryFailedPayload{Stage: stage, Reason: err.Error()},
	})
}
