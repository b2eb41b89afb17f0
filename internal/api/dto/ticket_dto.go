package dto

import (
	"time"

	"github.com/cubanhacks/ticket-bot/internal/domain"
)

// SubmitTicketRequest is the payment report posted by the storefront. The
// field names mirror the storefront form verbatim, including casing and the
// spaced keys.
type SubmitTicketRequest struct {
	Phone       string `json:"Numero"`
	Product     string `json:"Producto"`
	Proof       string `json:"Comprobante"`
	Duration    string `json:"Duracion o Cantidad"`
	Amount      string `json:"Monto"`
	WAID        string `json:"WA_ID"`
	ExternalID  string `json:"ID"`
	PartnerUser string `json:"usuario socio"`
	PhotoURL    string `json:"Foto de PAgo"`
}

// SubmitTicketResponse reports where the ticket was announced.
type SubmitTicketResponse struct {
	TicketID  int    `json:"ticket_id"`
	Country   string `json:"country"`
	ChannelID string `json:"channel_id"`
	Prefix    string `json:"prefix"`
}

// ProcessTicketRequest applies an explicit decision to a pending ticket.
type ProcessTicketRequest struct {
	Action string `json:"accion"`
	Actor  string `json:"autor"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          int        `json:"id"`
	Phone       string     `json:"phone"`
	Product     string     `json:"product"`
	Proof       string     `json:"proof,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	Amount      string     `json:"amount,omitempty"`
	Country     string     `json:"country"`
	ChannelID   string     `json:"channel_id"`
	Prefix      string     `json:"prefix"`
	WAID        string     `json:"wa_id"`
	ExternalID  string     `json:"external_id,omitempty"`
	PartnerUser string     `json:"partner_user,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Decision    string     `json:"decision,omitempty"`
	Actor       string     `json:"actor,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// TicketFromDomain maps a domain ticket onto the response shape.
func TicketFromDomain(t domain.Ticket) TicketSummary {
	out := TicketSummary{
		ID:          t.ID,
		Phone:       t.Phone,
		Product:     t.Product,
		Proof:       t.Proof,
		Duration:    t.Duration,
		Amount:      t.Amount,
		Country:     t.Country,
		ChannelID:   t.ChannelID,
		Prefix:      t.Prefix,
		WAID:        t.WAID,
		ExternalID:  t.ExternalID,
		PartnerUser: t.PartnerUser,
		CreatedAt:   t.CreatedAt,
	}
	if t.Outcome != nil {
		out.Decision = string(t.Outcome.Decision)
		out.Actor = t.Outcome.Actor
		decidedAt := t.Outcome.DecidedAt
		out.DecidedAt = &decidedAt
	}
	return out
}

// WebhookPayload is the inbound message batch pushed by the gateway.
type WebhookPayload struct {
	Messages []InboundMessage `json:"messages"`
}

// InboundMessage is one message in a webhook batch. QuotedMessage is set
// when the sender replied to an earlier message.
type InboundMessage struct {
	From          string         `json:"from"`
	ChatID        string         `json:"chat_id"`
	Body          string         `json:"body"`
	FromName      string         `json:"from_name"`
	QuotedMessage *QuotedMessage `json:"quoted_message"`
}

// QuotedMessage carries the body of the message being replied to.
type QuotedMessage struct {
	Body string `json:"body"`
}

// WebhookResponse summarizes what the batch produced.
type WebhookResponse struct {
	Received int `json:"received"`
	Resolved int `json:"resolved"`
}

// SendMessageRequest is a direct outbound send. Field names follow the
// original operator tooling.
type SendMessageRequest struct {
	Phone   string `json:"numero"`
	Message string `json:"mensaje"`
}

// SimulateRequest dry-runs country detection for a phone number.
type SimulateRequest struct {
	Phone string `json:"numero"`
}

// SimulateResponse reports where a submission from the number would land.
type SimulateResponse struct {
	PhoneOriginal string `json:"numero_original"`
	PhoneDigits   string `json:"numero_limpio"`
	Prefix        string `json:"prefijo_detectado"`
	Country       string `json:"pais_asignado"`
	ChannelID     string `json:"grupo_destino"`
	State         string `json:"estado"`
	Problem       string `json:"problema,omitempty"`
}
