package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cubanhacks/ticket-bot/internal/api/dto"
	"github.com/cubanhacks/ticket-bot/internal/decision"
	"github.com/cubanhacks/ticket-bot/internal/domain"
	"github.com/cubanhacks/ticket-bot/internal/service"
	"github.com/cubanhacks/ticket-bot/internal/store"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

// TicketsHandler manages the payment report endpoints.
type TicketsHandler struct {
	submission *service.SubmissionService
	resolution *service.ResolutionService
	store      *store.Store
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(submission *service.SubmissionService, resolution *service.ResolutionService, ticketStore *store.Store) *TicketsHandler {
	return &TicketsHandler{submission: submission, resolution: resolution, store: ticketStore}
}

// Submit POST /tickets.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.submission.Submit(c.Context(), service.SubmissionInput{
		Phone:       req.Phone,
		Product:     req.Product,
		Proof:       req.Proof,
		PhotoURL:    req.PhotoURL,
		Duration:    req.Duration,
		Amount:      req.Amount,
		WAID:        req.WAID,
		ExternalID:  req.ExternalID,
		PartnerUser: req.PartnerUser,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SubmitTicketResponse{
		TicketID:  res.TicketID,
		Country:   res.Country,
		ChannelID: res.ChannelID,
		Prefix:    res.Prefix,
	}})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	tickets := h.store.List()
	items := make([]dto.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, dto.TicketFromDomain(t))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id, err := parseTicketID(c.Params("id"))
	if err != nil {
		return err
	}
	ticket, ok := h.store.Get(id)
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Process POST /tickets/:id/process.
func (h *TicketsHandler) Process(c *fiber.Ctx) error {
	id, err := parseTicketID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.ProcessTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	verdict, err := parseAction(req.Action)
	if err != nil {
		return err
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = "API"
	}

	ticket, err := h.resolution.Resolve(c.Context(), decision.Event{
		TicketID: id,
		Decision: verdict,
		Actor:    actor,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(*ticket)})
}

func parseTicketID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("ticket id must be a positive number", nil)
	}
	return id, nil
}

func parseAction(action string) (domain.Decision, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "aprobar", "aprobado", "approve":
		return domain.DecisionApproved, nil
	case "rechazar", "rechazado", "reject":
		return domain.DecisionRejected, nil
	default:
		return "", apperrors.NewValidationError("accion must be aprobar or rechazar", nil)
	}
}
