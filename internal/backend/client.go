// Package backend talks to the license and balance HTTP API. The API
// occasionally answers with an HTML error page instead of JSON, so every
// response body is sniffed before decoding.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jaytaylor/html2text"
	"github.com/mitchellh/go-wordwrap"
	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/config"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

// Client calls the product/license and balance endpoints.
type Client struct {
	baseURL        string
	apiKey         string
	userAgent      string
	productTimeout time.Duration
	balanceTimeout time.Duration
	httpc          *http.Client
	logger         *zap.Logger
}

// New builds a backend client from configuration.
func New(cfg config.BackendConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		userAgent:      cfg.UserAgent,
		productTimeout: time.Duration(cfg.ProductTimeoutSeconds) * time.Second,
		balanceTimeout: time.Duration(cfg.BalanceTimeoutSeconds) * time.Second,
		httpc:          &http.Client{},
		logger:         logger,
	}
}

// ProductResult is a successful license fetch.
type ProductResult struct {
	License     string
	Tutorial    string
	ProductName string
}

type productResponse struct {
	Status      string `json:"status"`
	License     string `json:"licencia"`
	Tutorial    string `json:"tutorial"`
	ProductName string `json:"product_name"`
	Message     string `json:"message"`
}

// FetchProduct requests a license and tutorial for the given product.
// Returned errors carry the BACKEND_CONTRACT code when the response violates
// the API contract, or TRANSPORT_FAILED on connectivity problems.
func (c *Client) FetchProduct(ctx context.Context, product, duration, tutorialAlias string) (*ProductResult, error) {
	payload := map[string]any{
		"producto":       product,
		"duracion":       duration,
		"tutorial_alias": tutorialAlias,
	}

	body, err := c.post(ctx, "/get_product_data.php", payload, c.productTimeout)
	if err != nil {
		return nil, err
	}

	var parsed productResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("backend returned invalid JSON", zap.String("body", truncate(string(body), 300)))
		return nil, apperrors.NewBackendContract("invalid JSON from license backend",
			map[string]any{"reason": "invalid_json"})
	}

	if parsed.Status == "error" {
		return nil, apperrors.NewBackendContract(fmt.Sprintf("license backend error: %s", parsed.Message),
			map[string]any{"reason": "api_error", "message": parsed.Message})
	}
	if parsed.Status != "success" || parsed.License == "" || parsed.Tutorial == "" {
		return nil, apperrors.NewBackendContract("incomplete license response: missing licencia or tutorial",
			map[string]any{"reason": "missing_fields"})
	}

	return &ProductResult{
		License:     parsed.License,
		Tutorial:    tutorialToText(parsed.Tutorial),
		ProductName: parsed.ProductName,
	}, nil
}

type balanceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		NewBalance *float64 `json:"new_balance"`
	} `json:"data"`
}

// AddBalance recharges a partner account and returns the new balance.
func (c *Client) AddBalance(ctx context.Context, username string, amount float64, description string) (float64, error) {
	if amount <= 0 {
		return 0, apperrors.NewValidationError("recharge amount must be positive",
			map[string]any{"amount": amount})
	}
	if amount > 10000 {
		return 0, apperrors.NewValidationError("recharge amount exceeds the 10000 limit",
			map[string]any{"amount": amount})
	}

	payload := map[string]any{
		"username":    username,
		"amount":      amount,
		"description": description,
	}

	body, err := c.post(ctx, "/add_balance_by_username.php", payload, c.balanceTimeout)
	if err != nil {
		return 0, err
	}

	var parsed balanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, apperrors.NewBackendContract("invalid JSON from balance backend",
			map[string]any{"reason": "invalid_json"})
	}
	if !parsed.Success {
		return 0, apperrors.NewBackendContract(fmt.Sprintf("balance backend error: %s", parsed.Message),
			map[string]any{"reason": "api_error", "message": parsed.Message})
	}
	if parsed.Data == nil || parsed.Data.NewBalance == nil {
		return 0, apperrors.NewBackendContract("balance response missing new_balance",
			map[string]any{"reason": "missing_fields"})
	}
	return *parsed.Data.NewBalance, nil
}

// post performs an authenticated POST and returns the raw body after
// checking HTTP status and sniffing for HTML error pages.
func (c *Client) post(ctx context.Context, path string, payload any, timeout time.Duration) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportFailed("backend unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportFailed("reading backend response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("backend HTTP %d", resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized {
			msg = "backend authentication failed: invalid API key"
		} else if resp.StatusCode == http.StatusForbidden {
			msg = "backend rejected the request: insufficient permissions"
		}
		return nil, apperrors.NewBackendContract(msg,
			map[string]any{"reason": "http_status", "status": resp.StatusCode})
	}

	if isHTML(body) {
		c.logger.Error("backend returned HTML instead of JSON",
			zap.String("path", path),
			zap.String("body", truncate(string(body), 200)))
		return nil, apperrors.NewBackendContract("backend returned HTML instead of JSON",
			map[string]any{"reason": "html_response"})
	}

	return body, nil
}

func isHTML(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<html")
}

var multiBlank = regexp.MustCompile(`\n\s*\n\s*\n`)

// tutorialToText converts an HTML tutorial into plain text wrapped at 80
// columns. Tutorials already in plain text pass through untouched.
func tutorialToText(tutorial string) string {
	if !strings.Contains(tutorial, "<") || !strings.Contains(tutorial, ">") {
		return tutorial
	}
	text, err := html2text.FromString(tutorial, html2text.Options{TextOnly: true})
	if err != nil {
		return tutorial
	}
	text = wordwrap.WrapString(text, 80)
	text = multiBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
