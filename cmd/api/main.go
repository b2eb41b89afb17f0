package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/cubanhacks/ticket-bot/internal/api/http"
	"github.com/cubanhacks/ticket-bot/internal/api/http/handlers"
	"github.com/cubanhacks/ticket-bot/internal/auth"
	"github.com/cubanhacks/ticket-bot/internal/backend"
	"github.com/cubanhacks/ticket-bot/internal/config"
	"github.com/cubanhacks/ticket-bot/internal/dedup"
	"github.com/cubanhacks/ticket-bot/internal/dispatch"
	"github.com/cubanhacks/ticket-bot/internal/events"
	"github.com/cubanhacks/ticket-bot/internal/observability"
	"github.com/cubanhacks/ticket-bot/internal/persistence"
	"github.com/cubanhacks/ticket-bot/internal/rotation"
	"github.com/cubanhacks/ticket-bot/internal/routing"
	"github.com/cubanhacks/ticket-bot/internal/service"
	"github.com/cubanhacks/ticket-bot/internal/store"
	"github.com/cubanhacks/ticket-bot/internal/worker"
)

// fatalExitDelay gives in-flight sends a moment to finish before the
// supervisor restarts the process after an unrecoverable gateway failure.
const fatalExitDelay = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	routes, err := routing.LoadTable(cfg.Routing.GroupsFile)
	if err != nil {
		logger.Fatal("failed to load country routing table",
			zap.String("file", cfg.Routing.GroupsFile), zap.Error(err))
	}

	ticketStore := store.New()
	guard := dedup.NewGuard(cfg.Dedup.Window())

	var redis *persistence.Redis
	var rotationStore rotation.StateStore
	if cfg.Rotation.Backend == "redis" {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		rotationStore = rotation.NewRedisStore(redis.Client, cfg.Rotation.RedisKey)
	} else {
		rotationStore = rotation.NewFileStore(cfg.Rotation.StateFile)
	}
	rotator := rotation.New(rotation.DefaultAgents(), rotationStore, logger)

	gateway := dispatch.NewGateway(cfg.Gateway, logger)
	var primary dispatch.Transport
	if gateway.Configured() {
		primary = gateway
	} else {
		logger.Warn("gateway token not configured, outbound sends will fail")
	}
	dispatcher := dispatch.New(primary, nil, logger, metrics)

	var exitOnce sync.Once
	dispatcher.FatalHook = func(err error) {
		exitOnce.Do(func() {
			logger.Error("scheduling process exit after fatal transport failure",
				zap.Duration("delay", fatalExitDelay), zap.Error(err))
			time.AfterFunc(fatalExitDelay, func() { os.Exit(1) })
		})
	}

	backendClient := backend.New(cfg.Backend, logger)
	bus := events.NewInMemoryDispatcher()

	fulfillment := service.NewFulfillmentService(service.FulfillmentDependencies{
		Backend:           backendClient,
		Rotator:           rotator,
		Dispatcher:        dispatcher,
		Events:            bus,
		Logger:            logger,
		DiamondsChannelID: cfg.Routing.DiamondsChannelID,
		ClientGroupLink:   cfg.Routing.ClientGroupLink,
		SupportLink:       cfg.Routing.SupportLink,
	})
	submission := service.NewSubmissionService(service.SubmissionDependencies{
		Store:      ticketStore,
		Guard:      guard,
		Routes:     routes,
		Dispatcher: dispatcher,
		Events:     bus,
		Metrics:    metrics,
		Logger:     logger,
	})
	resolution := service.NewResolutionService(service.ResolutionDependencies{
		Store:       ticketStore,
		Fulfillment: fulfillment,
		Dispatcher:  dispatcher,
		Events:      bus,
		Metrics:     metrics,
		Logger:      logger,
	})

	notifications := service.NewNotificationService(bus, logger)
	worker.StartNotificationWorker(notifications)

	go sweepExpiredFingerprints(ctx, guard, cfg.Dedup.SweepInterval(), logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, ticketStore, guard, gateway, metrics, redis),
		Tickets:        handlers.NewTicketsHandler(submission, resolution, ticketStore),
		Webhook:        handlers.NewWebhookHandler(resolution, logger),
		Messages:       handlers.NewMessagesHandler(dispatcher, routes),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func sweepExpiredFingerprints(ctx context.Context, guard *dedup.Guard, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := guard.Sweep(); removed > 0 {
				logger.Debug("expired duplicate fingerprints removed", zap.Int("count", removed))
			}
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
