// Package rotation assigns sales agents round-robin and persists the
// rotation counter so assignments survive restarts.
package rotation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/domain"
)

// State is the persisted rotation record. Field names keep the original
// state file layout so existing deployments keep their counters.
type State struct {
	Counter    int    `json:"contadorVendedor"`
	LastSale   string `json:"ultimaVenta"`
	TotalSales int    `json:"totalVentas"`
}

// StateStore loads and saves rotation state.
type StateStore interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// DefaultAgents returns the configured sales team in rotation order.
func DefaultAgents() []domain.Agent {
	return []domain.Agent{
		{Name: "Jose", Phone: "+58 416-7076994"},
		{Name: "Franz", Phone: "+591 76744561"},
		{Name: "Pablo", Phone: "+591 62656932"},
		{Name: "Luis", Phone: "+58 412-3939025"},
		{Name: "Ezequiel", Phone: "+57 301 7083834"},
	}
}

// Rotator hands out agents in a fixed cycle. The mutex keeps Next coherent
// inside one process; the load-modify-save sequence against the state store
// is deliberately not serialized across processes, two instances sharing a
// store can assign the same agent twice.
type Rotator struct {
	mu     sync.Mutex
	agents []domain.Agent
	store  StateStore
	logger *zap.Logger
	now    func() time.Time
}

// New creates a rotator over the given agents and state store.
func New(agents []domain.Agent, store StateStore, logger *zap.Logger) *Rotator {
	return &Rotator{agents: agents, store: store, logger: logger, now: time.Now}
}

// Next returns the agent at the current counter and advances the rotation.
// State persistence is best effort: a failed save is logged and the
// assignment still stands.
func (r *Rotator) Next(ctx context.Context) (domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Warn("rotation state unreadable, starting from zero", zap.Error(err))
		state = State{}
	}
	if state.Counter < 0 || state.Counter >= len(r.agents) {
		state.Counter = 0
	}

	agent := r.agents[state.Counter]
	state.Counter = (state.Counter + 1) % len(r.agents)
	state.LastSale = r.now().Format(time.RFC3339)
	state.TotalSales++

	if err := r.store.Save(ctx, state); err != nil {
		r.logger.Warn("failed to persist rotation state", zap.Error(err))
	}

	r.logger.Info("agent assigned",
		zap.String("agent", agent.Name),
		zap.Int("total_sales", state.TotalSales))
	return agent, nil
}
