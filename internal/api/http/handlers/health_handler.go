package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cubanhacks/ticket-bot/internal/dedup"
	"github.com/cubanhacks/ticket-bot/internal/dispatch"
	"github.com/cubanhacks/ticket-bot/internal/observability"
	"github.com/cubanhacks/ticket-bot/internal/persistence"
	"github.com/cubanhacks/ticket-bot/internal/store"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	store       *store.Store
	guard       *dedup.Guard
	gateway     *dispatch.Gateway
	metrics     *observability.Metrics
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance. redis may be nil when the
// rotation state lives on disk.
func NewHealthHandler(serviceName, version string, ticketStore *store.Store, guard *dedup.Guard, gateway *dispatch.Gateway, metrics *observability.Metrics, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       ticketStore,
		guard:       guard,
		gateway:     gateway,
		metrics:     metrics,
		redis:       redis,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness. A missing gateway token makes the bot not ready;
// it could receive reports but never announce them.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	depStatus := fiber.Map{}
	ready := true

	if h.gateway != nil && h.gateway.Configured() {
		depStatus["gateway"] = "ok"
	} else {
		depStatus["gateway"] = "token not configured"
		ready = false
	}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx); err != nil {
			depStatus["redis"] = err.Error()
			ready = false
		} else {
			depStatus["redis"] = "ok"
		}
	}

	stats := fiber.Map{
		"pending_tickets": h.store.Len(),
		"dedup_entries":   h.guard.Len(),
	}
	for name, value := range h.metrics.Snapshot() {
		stats[name] = value
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
			"stats":        stats,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
