package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cubanhacks/ticket-bot/internal/api/dto"
	"github.com/cubanhacks/ticket-bot/internal/dispatch"
	"github.com/cubanhacks/ticket-bot/internal/routing"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

// MessagesHandler exposes the direct send and routing simulation endpoints
// used by operators.
type MessagesHandler struct {
	dispatcher *dispatch.Dispatcher
	routes     *routing.Table
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(dispatcher *dispatch.Dispatcher, routes *routing.Table) *MessagesHandler {
	return &MessagesHandler{dispatcher: dispatcher, routes: routes}
}

// Send POST /messages.
func (h *MessagesHandler) Send(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Message) == "" {
		return apperrors.NewValidationError("numero and mensaje are required", nil)
	}

	if err := h.dispatcher.SendText(c.Context(), req.Phone, req.Message, dispatch.DefaultAttempts); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sent": true, "numero": req.Phone}})
}

// Simulate POST /simulate. Dry-runs country detection and channel routing
// for a phone number without creating a ticket.
func (h *MessagesHandler) Simulate(c *fiber.Ctx) error {
	var req dto.SimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Phone) == "" {
		return apperrors.NewValidationError("numero is required", nil)
	}

	prefix := routing.ResolvePrefix(req.Phone)
	route, ok := h.routes.Route(prefix)

	out := dto.SimulateResponse{
		PhoneOriginal: req.Phone,
		PhoneDigits:   digitsOnly(req.Phone),
		Prefix:        prefix,
		State:         "ok",
	}
	if ok {
		out.Country = route.Country
		out.ChannelID = route.ChannelID
	}
	if !ok || route.ChannelID == "" {
		out.State = "error"
		out.Problem = "el país detectado no tiene grupo configurado"
	}
	return c.JSON(fiber.Map{"data": out})
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
