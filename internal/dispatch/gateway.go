package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/config"
)

// Gateway is the primary cloud messaging transport.
type Gateway struct {
	baseURL      string
	token        string
	textTimeout  time.Duration
	imageTimeout time.Duration
	httpc        *http.Client
	logger       *zap.Logger
}

// NewGateway builds the cloud gateway transport from configuration.
func NewGateway(cfg config.GatewayConfig, logger *zap.Logger) *Gateway {
	return &Gateway{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.Token,
		textTimeout:  cfg.TextTimeout(),
		imageTimeout: cfg.ImageTimeout(),
		httpc:        &http.Client{},
		logger:       logger,
	}
}

// Configured reports whether the gateway has credentials to send.
func (g *Gateway) Configured() bool {
	return g != nil && g.token != ""
}

// Name identifies the transport in logs.
func (g *Gateway) Name() string { return "gateway" }

// SendText posts a text message through the cloud gateway.
func (g *Gateway) SendText(ctx context.Context, to, body string) error {
	payload := map[string]string{"to": to, "body": body}
	return g.post(ctx, "/messages/text", payload, g.textTimeout)
}

// SendImage posts an image message with a caption.
func (g *Gateway) SendImage(ctx context.Context, to, mediaURL, caption string) error {
	payload := map[string]string{"to": to, "media": mediaURL, "caption": caption}
	return g.post(ctx, "/messages/image", payload, g.imageTimeout)
}

func (g *Gateway) post(ctx context.Context, path string, payload any, timeout time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
