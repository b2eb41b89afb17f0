package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/api/dto"
	"github.com/cubanhacks/ticket-bot/internal/decision"
	"github.com/cubanhacks/ticket-bot/internal/service"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

// WebhookHandler ingests inbound message batches from the gateway and turns
// administrator replies into ticket decisions.
type WebhookHandler struct {
	resolution *service.ResolutionService
	logger     *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(resolution *service.ResolutionService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{resolution: resolution, logger: logger}
}

// Receive POST /webhook/messages. The gateway expects a fast 200; decision
// failures are logged, never surfaced back to it.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var payload dto.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	resolved := 0
	for _, msg := range payload.Messages {
		ev, ok := h.parseDecision(msg)
		if !ok {
			continue
		}
		if _, err := h.resolution.Resolve(c.Context(), ev); err != nil {
			h.logger.Warn("webhook decision not applied",
				zap.Int("ticket_id", ev.TicketID),
				zap.String("actor", ev.Actor),
				zap.Error(err))
			continue
		}
		resolved++
	}

	return c.JSON(fiber.Map{"data": dto.WebhookResponse{
		Received: len(payload.Messages),
		Resolved: resolved,
	}})
}

// parseDecision recognizes the two command forms. Quoted replies only count
// inside group chats; the legacy plain command works anywhere.
func (h *WebhookHandler) parseDecision(msg dto.InboundMessage) (decision.Event, bool) {
	actor := msg.FromName
	if actor == "" {
		actor = msg.From
	}
	if msg.QuotedMessage != nil && strings.HasSuffix(msg.ChatID, "@g.us") {
		if ev, ok := decision.ParseQuotedReply(msg.Body, msg.QuotedMessage.Body, actor, msg.ChatID); ok {
			return ev, true
		}
	}
	return decision.ParseLegacy(msg.Body, actor, msg.ChatID)
}
