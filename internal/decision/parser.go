// Package decision turns administrator chat messages into ticket verdicts.
// Two ingestion paths exist: a quoted-reply path (emoji or keyword answer
// quoting the ticket message) and a legacy plain-text command. Both
// normalize to the same Event.
package decision

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cubanhacks/ticket-bot/internal/domain"
)

// Event is a normalized decision ready for resolution.
type Event struct {
	TicketID  int
	Decision  domain.Decision
	Actor     string
	ChannelID string
}

var (
	ticketMarker  = regexp.MustCompile(`(?:TICKET #|Ticket:\s*#)(\d+)`)
	bareHash      = regexp.MustCompile(`#(\d+)`)
	legacyCommand = regexp.MustCompile(`(?i)\b(aprobado|rechazado)\s+(\d{3})\b`)
)

// ExtractTicketID recovers a ticket number from the quoted ticket message,
// trying the explicit marker first and a bare #NNN as fallback.
func ExtractTicketID(quotedBody string) (int, bool) {
	m := ticketMarker.FindStringSubmatch(quotedBody)
	if m == nil {
		m = bareHash.FindStringSubmatch(quotedBody)
	}
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseQuotedReply interprets a reply to a quoted ticket message. Approval
// wins when the reply matches both keyword sets, matching how replies were
// always handled.
func ParseQuotedReply(body, quotedBody, actor, channelID string) (Event, bool) {
	text := strings.TrimSpace(body)
	lower := strings.ToLower(text)

	approved := text == "✅" ||
		strings.Contains(lower, "aprobar") ||
		strings.Contains(lower, "si") ||
		strings.Contains(lower, "ok")
	rejected := text == "❌" ||
		strings.Contains(lower, "rechazar") ||
		strings.Contains(lower, "no") ||
		strings.Contains(lower, "cancel")

	var verdict domain.Decision
	switch {
	case approved:
		verdict = domain.DecisionApproved
	case rejected:
		verdict = domain.DecisionRejected
	default:
		return Event{}, false
	}

	id, ok := ExtractTicketID(quotedBody)
	if !ok {
		return Event{}, false
	}
	return Event{TicketID: id, Decision: verdict, Actor: actor, ChannelID: channelID}, true
}

// ParseLegacy interprets the plain-text command form
// "aprobado NNN" / "rechazado NNN".
func ParseLegacy(body, actor, channelID string) (Event, bool) {
	m := legacyCommand.FindStringSubmatch(body)
	if m == nil {
		return Event{}, false
	}
	id, err := strconv.Atoi(m[2])
	if err != nil {
		return Event{}, false
	}
	verdict := domain.DecisionApproved
	if strings.EqualFold(m[1], "rechazado") {
		verdict = domain.DecisionRejected
	}
	return Event{TicketID: id, Decision: verdict, Actor: actor, ChannelID: channelID}, true
}
