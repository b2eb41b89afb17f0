package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/backend"
	"github.com/cubanhacks/ticket-bot/internal/config"
	"github.com/cubanhacks/ticket-bot/internal/decision"
	"github.com/cubanhacks/ticket-bot/internal/dedup"
	"github.com/cubanhacks/ticket-bot/internal/dispatch"
	"github.com/cubanhacks/ticket-bot/internal/domain"
	"github.com/cubanhacks/ticket-bot/internal/events"
	"github.com/cubanhacks/ticket-bot/internal/observability"
	"github.com/cubanhacks/ticket-bot/internal/rotation"
	"github.com/cubanhacks/ticket-bot/internal/routing"
	"github.com/cubanhacks/ticket-bot/internal/store"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

type sentMessage struct {
	To   string
	Body string
}

type captureTransport struct {
	texts    []sentMessage
	images   []sentMessage
	textErr  error
	imageErr error
}

func (c *captureTransport) Name() string { return "capture" }

func (c *captureTransport) SendText(ctx context.Context, to, body string) error {
	if c.textErr != nil {
		return c.textErr
	}
	c.texts = append(c.texts, sentMessage{To: to, Body: body})
	return nil
}

func (c *captureTransport) SendImage(ctx context.Context, to, mediaURL, caption string) error {
	if c.imageErr != nil {
		return c.imageErr
	}
	c.images = append(c.images, sentMessage{To: to, Body: caption})
	return nil
}

func (c *captureTransport) textsTo(dest string) []string {
	var out []string
	for _, m := range c.texts {
		if m.To == dest {
			out = append(out, m.Body)
		}
	}
	return out
}

type harness struct {
	store      *store.Store
	guard      *dedup.Guard
	transport  *captureTransport
	submission *SubmissionService
	resolution *ResolutionService
	backendHit *atomic.Int64
}

func newHarness(t *testing.T, backendHandler http.HandlerFunc) *harness {
	t.Helper()

	transport := &captureTransport{}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := dispatch.New(transport, nil, logger, metrics)

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		backendHandler(w, r)
	}))
	t.Cleanup(srv.Close)

	backendClient := backend.New(config.BackendConfig{
		BaseURL:               srv.URL,
		APIKey:                "test-key",
		UserAgent:             "test-agent",
		ProductTimeoutSeconds: 5,
		BalanceTimeoutSeconds: 5,
	}, logger)

	rotator := rotation.New(rotation.DefaultAgents(),
		rotation.NewFileStore(filepath.Join(t.TempDir(), "state.json")), logger)

	routes := routing.NewTable(map[string]routing.Route{
		"52":                  {Country: "México", ChannelID: "mx@g.us"},
		"58":                  {Country: "Venezuela", ChannelID: "ve@g.us"},
		routing.DefaultPrefix: {Country: "Internacional", ChannelID: "intl@g.us"},
	})

	ticketStore := store.New()
	guard := dedup.NewGuard(30 * time.Minute)
	bus := events.NewInMemoryDispatcher()

	fulfillment := NewFulfillmentService(FulfillmentDependencies{
		Backend:           backendClient,
		Rotator:           rotator,
		Dispatcher:        dispatcher,
		Events:            bus,
		Logger:            logger,
		DiamondsChannelID: "diamantes@g.us",
		ClientGroupLink:   "https://chat.whatsapp.com/Fa9LYiClTav3qRYopWmIs8",
		SupportLink:       "https://t.me/cubanvipmod",
	})

	return &harness{
		store:     ticketStore,
		guard:     guard,
		transport: transport,
		submission: NewSubmissionService(SubmissionDependencies{
			Store:      ticketStore,
			Guard:      guard,
			Routes:     routes,
			Dispatcher: dispatcher,
			Events:     bus,
			Metrics:    metrics,
			Logger:     logger,
		}),
		resolution: NewResolutionService(ResolutionDependencies{
			Store:       ticketStore,
			Fulfillment: fulfillment,
			Dispatcher:  dispatcher,
			Events:      bus,
			Metrics:     metrics,
			Logger:      logger,
		}),
		backendHit: &hits,
	}
}

func licenseBackend(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_product_data.php":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":       "success",
				"licencia":     "VIP-2024-XYZ",
				"tutorial":     "Descarga e instala.",
				"product_name": "Cuban VIP Mod 7 Dias",
			})
		case "/add_balance_by_username.php":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"new_balance": 180.0},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestSubmitAnnouncesTicketInCountryChannel(t *testing.T) {
	h := newHarness(t, licenseBackend(t))

	res, err := h.submission.Submit(context.Background(), SubmissionInput{
		Phone:    "+52 1234567890",
		Product:  "Cuban VIP Mod 7 Dias",
		Proof:    "ref-778899",
		Duration: "7 Dias",
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.TicketID, 100)
	assert.LessOrEqual(t, res.TicketID, 999)
	assert.Equal(t, "México", res.Country)
	assert.Equal(t, "52", res.Prefix)

	require.Len(t, h.transport.texts, 1)
	msg := h.transport.texts[0]
	assert.Equal(t, "mx@g.us", msg.To)
	assert.Contains(t, msg.Body, "TICKET #")
	assert.Contains(t, msg.Body, "Cuban VIP Mod 7 Dias")
	assert.Contains(t, msg.Body, "México")
	assert.Contains(t, msg.Body, "APROBAR TICKET")

	assert.Equal(t, 1, h.store.Len())
}

func TestSubmitUnknownPrefixUsesDefaultRoute(t *testing.T) {
	h := newHarness(t, licenseBackend(t))

	res, err := h.submission.Submit(context.Background(), SubmissionInput{
		Phone:   "34911223344",
		Product: "Producto X",
		Proof:   "ref-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Internacional", res.Country)
	assert.Equal(t, routing.DefaultPrefix, res.Prefix)
}

func TestSubmitRejectsDuplicates(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	in := SubmissionInput{Phone: "521234567890", Product: "Producto X", Proof: "ref-1"}

	first, err := h.submission.Submit(context.Background(), in)
	require.NoError(t, err)

	_, err = h.submission.Submit(context.Background(), in)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "DUPLICATE_REPORT", de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, first.TicketID, de.Details["prior_ticket_id"])
	assert.Equal(t, 1, h.store.Len())
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	h := newHarness(t, licenseBackend(t))

	_, err := h.submission.Submit(context.Background(), SubmissionInput{Product: "X"})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = h.submission.Submit(context.Background(), SubmissionInput{Phone: "52123"})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSubmitSendsProofImage(t *testing.T) {
	h := newHarness(t, licenseBackend(t))

	_, err := h.submission.Submit(context.Background(), SubmissionInput{
		Phone:   "521234567890",
		Product: "Producto X",
		Proof:   "Foto de PAgo: https://cdn.example.com/proof.jpg\nref-123",
	})
	require.NoError(t, err)

	require.Len(t, h.transport.images, 1)
	assert.Equal(t, "mx@g.us", h.transport.images[0].To)
	assert.Contains(t, h.transport.images[0].Body, "Comprobante de pago adjunto")
	assert.Empty(t, h.transport.texts)
}

func TestSubmitFailedAnnouncementLeavesNoTicket(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	h.transport.textErr = assert.AnError

	_, err := h.submission.Submit(context.Background(), SubmissionInput{
		Phone:   "521234567890",
		Product: "Producto X",
		Proof:   "ref-1",
	})
	require.Error(t, err)
	assert.Equal(t, "TRANSPORT_FAILED", apperrors.ToDomainError(err).Code)
	assert.Equal(t, 0, h.store.Len())

	// and the fingerprint was never recorded, so a retry is not a duplicate
	h.transport.textErr = nil
	_, err = h.submission.Submit(context.Background(), SubmissionInput{
		Phone:   "521234567890",
		Product: "Producto X",
		Proof:   "ref-1",
	})
	assert.NoError(t, err)
}

func submitTicket(t *testing.T, h *harness, in SubmissionInput) int {
	t.Helper()
	res, err := h.submission.Submit(context.Background(), in)
	require.NoError(t, err)
	return res.TicketID
}

func TestResolveApprovalDeliversLicense(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	id := submitTicket(t, h, SubmissionInput{
		Phone:    "+58 4141234567",
		Product:  "Cuban VIP Mod 7 Dias",
		Proof:    "ref-778899",
		Duration: "7 Dias",
		WAID:     "584141234567",
	})

	ticket, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID:  id,
		Decision:  domain.DecisionApproved,
		Actor:     "Admin",
		ChannelID: "ve@g.us",
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.Outcome)
	assert.Equal(t, domain.DecisionApproved, ticket.Outcome.Decision)
	assert.Equal(t, 0, h.store.Len())

	buyerMsgs := h.transport.textsTo("584141234567@c.us")
	require.Len(t, buyerMsgs, 1)
	assert.Contains(t, buyerMsgs[0], "PAGO APROBADO")
	assert.Contains(t, buyerMsgs[0], "VIP-2024-XYZ")
	assert.Contains(t, buyerMsgs[0], "tutoriales.php?category=cuban-vip")
	assert.Contains(t, buyerMsgs[0], "Jose")

	channelMsgs := h.transport.textsTo("ve@g.us")
	require.NotEmpty(t, channelMsgs)
	assert.Contains(t, channelMsgs[len(channelMsgs)-1], "APROBADO")

	// the assigned agent got a sale notification
	agentMsgs := h.transport.textsTo("584167076994@c.us")
	require.Len(t, agentMsgs, 1)
	assert.Contains(t, agentMsgs[0], "NUEVA VENTA ASIGNADA")
}

func TestResolveRejectionWarnsBuyer(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	id := submitTicket(t, h, SubmissionInput{
		Phone:   "+58 4141234567",
		Product: "Cuban VIP Mod 7 Dias",
		Proof:   "ref-778899",
		WAID:    "584141234567",
	})
	h.backendHit.Store(0)

	_, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID:  id,
		Decision:  domain.DecisionRejected,
		Actor:     "Admin",
		ChannelID: "ve@g.us",
	})
	require.NoError(t, err)

	buyerMsgs := h.transport.textsTo("584141234567@c.us")
	require.Len(t, buyerMsgs, 1)
	assert.Contains(t, buyerMsgs[0], "PAGO RECHAZADO")
	assert.Contains(t, buyerMsgs[0], "ref-778899")
	assert.Equal(t, int64(0), h.backendHit.Load(), "rejection must not call the backend")
}

func TestResolveUnknownTicket(t *testing.T) {
	h := newHarness(t, licenseBackend(t))

	_, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID: 999,
		Decision: domain.DecisionApproved,
		Actor:    "Admin",
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	assert.Empty(t, h.transport.texts, "no side effects for unknown tickets")
}

func TestResolveTwiceFailsSecondTime(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	id := submitTicket(t, h, SubmissionInput{
		Phone: "521234567890", Product: "Cuban VIP Mod 7 Dias", Proof: "ref-1",
	})

	_, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID: id, Decision: domain.DecisionApproved, Actor: "Admin",
	})
	require.NoError(t, err)

	_, err = h.resolution.Resolve(context.Background(), decision.Event{
		TicketID: id, Decision: domain.DecisionApproved, Actor: "Admin",
	})
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestResolveSocioRecharge(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	id := submitTicket(t, h, SubmissionInput{
		Phone:       "521234567890",
		Product:     "Recarga Socio",
		Proof:       "ref-1",
		Duration:    "50",
		PartnerUser: "socio42",
		WAID:        "5211234567890",
	})

	_, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID: id, Decision: domain.DecisionApproved, Actor: "Admin",
	})
	require.NoError(t, err)

	buyerMsgs := h.transport.textsTo("5211234567890@c.us")
	require.Len(t, buyerMsgs, 1)
	assert.Contains(t, buyerMsgs[0], "RECARGA SOCIO COMPLETADA")
	assert.Contains(t, buyerMsgs[0], "socio42")
	assert.Contains(t, buyerMsgs[0], "$180.00")
}

func TestResolveSocioWithoutPartnerUser(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	id := submitTicket(t, h, SubmissionInput{
		Phone:    "521234567890",
		Product:  "Recarga Socio",
		Proof:    "ref-1",
		Duration: "50",
		WAID:     "5211234567890",
	})
	h.backendHit.Store(0)

	_, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID: id, Decision: domain.DecisionApproved, Actor: "Admin",
	})
	require.NoError(t, err)

	buyerMsgs := h.transport.textsTo("5211234567890@c.us")
	require.Len(t, buyerMsgs, 1)
	assert.Contains(t, buyerMsgs[0], "ERROR EN RECARGA SOCIO")
	assert.Equal(t, int64(0), h.backendHit.Load())
}

func TestResolveDiamondsHandsOffToChannel(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	id := submitTicket(t, h, SubmissionInput{
		Phone:      "521234567890",
		Product:    "100 Diamantes Free Fire",
		Proof:      "ref-1",
		Duration:   "100",
		ExternalID: "player-777",
		WAID:       "5211234567890",
	})

	_, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID: id, Decision: domain.DecisionApproved, Actor: "Admin",
	})
	require.NoError(t, err)

	diamondMsgs := h.transport.textsTo("diamantes@g.us")
	require.Len(t, diamondMsgs, 1)
	assert.Contains(t, diamondMsgs[0], "ENTREGA DIAMANTES")
	assert.Contains(t, diamondMsgs[0], "player-777")
}

func TestResolveManualProductValidatesOnly(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	id := submitTicket(t, h, SubmissionInput{
		Phone:   "521234567890",
		Product: "Netflix Premium 1 Mes",
		Proof:   "ref-1",
		WAID:    "5211234567890",
	})
	h.backendHit.Store(0)

	_, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID: id, Decision: domain.DecisionApproved, Actor: "Admin",
	})
	require.NoError(t, err)

	buyerMsgs := h.transport.textsTo("5211234567890@c.us")
	require.Len(t, buyerMsgs, 1)
	assert.Contains(t, buyerMsgs[0], "PAGO VALIDADO")
	assert.Equal(t, int64(0), h.backendHit.Load(), "manual products skip the backend")
}

func TestResolveApprovalBackendFailureStillNotifiesBuyer(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><html>down</html>"))
	})
	id := submitTicket(t, h, SubmissionInput{
		Phone:   "521234567890",
		Product: "Cuban VIP Mod 7 Dias",
		Proof:   "ref-1",
		WAID:    "5211234567890",
	})

	_, err := h.resolution.Resolve(context.Background(), decision.Event{
		TicketID: id, Decision: domain.DecisionApproved, Actor: "Admin",
	})
	require.NoError(t, err, "resolution succeeds even when delivery fails")

	buyerMsgs := h.transport.textsTo("5211234567890@c.us")
	require.Len(t, buyerMsgs, 1)
	assert.Contains(t, buyerMsgs[0], "ERROR EN ENTREGA AUTOMÁTICA")
	assert.Contains(t, buyerMsgs[0], "t.me/cubanvipmod")
}

func TestQuotedReplyDrivesResolution(t *testing.T) {
	h := newHarness(t, licenseBackend(t))
	id := submitTicket(t, h, SubmissionInput{
		Phone:   "521234567890",
		Product: "Cuban VIP Mod 7 Dias",
		Proof:   "ref-1",
		WAID:    "5211234567890",
	})

	// the channel announcement is what administrators quote
	quoted := h.transport.texts[0].Body
	ev, ok := decision.ParseQuotedReply("✅", quoted, "Admin", "mx@g.us")
	require.True(t, ok)
	assert.Equal(t, id, ev.TicketID)

	_, err := h.resolution.Resolve(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 0, h.store.Len())
}
