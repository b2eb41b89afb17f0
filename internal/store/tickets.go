package store

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cubanhacks/ticket-bot/internal/domain"
)

// Store keeps pending tickets in memory, keyed by their 3-digit ID.
// IDs are random in [100, 999] with no collision check; a collision
// silently replaces the earlier pending ticket.
type Store struct {
	mu      sync.Mutex
	pending map[int]domain.Ticket
	intn    func(n int) int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		pending: make(map[int]domain.Ticket),
		intn:    rand.Intn,
	}
}

// NewID generates a random 3-digit ticket ID.
func (s *Store) NewID() int {
	return 100 + s.intn(900)
}

// Put inserts or replaces a pending ticket keyed by its ID.
func (s *Store) Put(t domain.Ticket) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[t.ID] = t
}

// Get returns a pending ticket by ID.
func (s *Store) Get(id int) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[id]
	return t, ok
}

// Resolve atomically removes the ticket and returns it stamped with the
// outcome. A second resolve of the same ID reports not found, which is what
// makes double processing impossible.
func (s *Store) Resolve(id int, decision domain.Decision, actor string) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[id]
	if !ok {
		return domain.Ticket{}, false
	}
	delete(s.pending, id)
	t.Outcome = &domain.Outcome{Decision: decision, Actor: actor, DecidedAt: time.Now()}
	return t, true
}

// List returns a snapshot of all pending tickets.
func (s *Store) List() []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Ticket, 0, len(s.pending))
	for _, t := range s.pending {
		out = append(out, t)
	}
	return out
}

// Len returns the number of pending tickets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
