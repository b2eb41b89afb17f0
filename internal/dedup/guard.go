package dedup

import (
	"strings"
	"sync"
	"time"
)

// Result reports the outcome of a duplicate check.
type Result struct {
	Duplicate      bool
	ElapsedMinutes int
	PriorTicketID  int
}

type entry struct {
	ticketID   int
	reportedAt time.Time
}

// Guard detects repeated payment reports inside a fixed time window.
// Check and Record are individually safe for concurrent use, but the
// check-then-record pair used by the submission flow is not atomic: two
// simultaneous identical reports can both pass the check.
type Guard struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewGuard creates a guard with the given duplicate window.
func NewGuard(window time.Duration) *Guard {
	return &Guard{
		window:  window,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Fingerprint builds the dedup key for a report. The phone number is reduced
// to digits so formatting differences collapse to one identity.
func Fingerprint(phone, product, proof string) string {
	return strings.ToLower(digitsOnly(phone) + "_" + product + "_" + proof)
}

// Check sweeps expired entries, then reports whether an identical report
// exists inside the window.
func (g *Guard) Check(phone, product, proof string) Result {
	key := Fingerprint(phone, product, proof)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked(now)

	if prior, ok := g.entries[key]; ok {
		elapsed := int(now.Sub(prior.reportedAt).Round(time.Minute) / time.Minute)
		return Result{Duplicate: true, ElapsedMinutes: elapsed, PriorTicketID: prior.ticketID}
	}
	return Result{}
}

// Record registers a report fingerprint against its ticket ID.
func (g *Guard) Record(phone, product, proof string, ticketID int) {
	key := Fingerprint(phone, product, proof)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[key] = entry{ticketID: ticketID, reportedAt: g.now()}
}

// Sweep removes expired entries and returns how many were dropped.
func (g *Guard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sweepLocked(g.now())
}

// Len returns the number of live fingerprints.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *Guard) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range g.entries {
		if now.Sub(e.reportedAt) > g.window {
			delete(g.entries, key)
			removed++
		}
	}
	return removed
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
