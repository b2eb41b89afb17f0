package domain

import "time"

// Decision is the verdict an administrator gives on a payment ticket.
type Decision string

const (
	DecisionApproved Decision = "APROBADO"
	DecisionRejected Decision = "RECHAZADO"
)

// ProductCategory selects the fulfillment branch used after approval.
type ProductCategory string

const (
	// CategoryStandard products are delivered automatically with a license
	// fetched from the backend.
	CategoryStandard ProductCategory = "standard"
	// CategorySocio products are partner balance recharges.
	CategorySocio ProductCategory = "socio"
	// CategoryDiamonds products are forwarded to the diamonds delivery group.
	CategoryDiamonds ProductCategory = "diamonds"
	// CategoryManual products are validated only; an agent delivers by hand.
	CategoryManual ProductCategory = "manual"
)

// Ticket is a pending payment report awaiting an administrator decision.
// Tickets live in memory only; a resolved ticket is removed from the store.
type Ticket struct {
	ID            int
	Phone         string
	Product       string
	Proof         string
	ProofImageURL string
	Duration      string
	Amount        string
	Country       string
	ChannelID     string
	Prefix        string
	WAID          string
	ExternalID    string
	PartnerUser   string
	CreatedAt     time.Time
	Outcome       *Outcome
}

// Outcome records how and by whom a ticket was resolved.
type Outcome struct {
	Decision  Decision
	Actor     string
	DecidedAt time.Time
}

// Agent is a sales agent participating in round-robin assignment.
type Agent struct {
	Name  string
	Phone string
}
