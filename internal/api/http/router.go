package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cubanhacks/ticket-bot/internal/api/http/handlers"
	"github.com/cubanhacks/ticket-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Webhook        *handlers.WebhookHandler
	Messages       *handlers.MessagesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. The storefront and the gateway call the
// open routes; everything operational sits behind the bearer token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/tickets", cfg.Tickets.Submit)
	app.Post("/webhook/messages", cfg.Webhook.Receive)

	admin := app.Group("", cfg.AuthMiddleware.Handle)
	admin.Get("/tickets", cfg.Tickets.List)
	admin.Get("/tickets/:id", cfg.Tickets.Get)
	admin.Post("/tickets/:id/process", cfg.Tickets.Process)
	admin.Post("/messages", cfg.Messages.Send)
	admin.Post("/simulate", cfg.Messages.Simulate)
}
