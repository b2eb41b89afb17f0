// Package dispatch delivers outbound messages through a primary cloud
// gateway with failover to an optional secondary session transport.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/observability"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

const (
	// DefaultAttempts is the standard retry budget for text messages.
	DefaultAttempts = 3

	primaryBackoffBase   = 2 * time.Second
	secondaryBackoffBase = 5 * time.Second
)

// Dispatcher routes messages to the primary transport first and falls back
// to the secondary only when the primary fails. Text sends retry with
// linear backoff (attempt number times the transport base delay). Image
// sends never retry on the same transport; any failure downgrades to a
// caption-only text send.
type Dispatcher struct {
	primary   Transport
	secondary Transport
	logger    *zap.Logger
	metrics   *observability.Metrics

	// FatalHook is invoked once per fatal transport error, before the error
	// is returned to the caller. main uses it to schedule a process exit.
	FatalHook func(error)

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a dispatcher. Either transport may be nil; at least one must
// be set for sends to succeed.
func New(primary, secondary Transport, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		metrics:   metrics,
		sleep:     sleepCtx,
	}
}

// SendText delivers a text message to dest with up to maxAttempts tries per
// transport.
func (d *Dispatcher) SendText(ctx context.Context, dest, body string, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultAttempts
	}
	to := FormatAddress(dest)

	if d.primary != nil {
		err := d.withRetry(ctx, d.primary, maxAttempts, primaryBackoffBase, func() error {
			return d.primary.SendText(ctx, to, body)
		})
		if err == nil {
			return nil
		}
		if IsFatal(err) {
			return d.fatal(err)
		}
		d.logger.Warn("primary transport failed",
			zap.String("to", to), zap.Error(err))
		if d.secondary == nil {
			return apperrors.NewTransportFailed("message delivery failed", err)
		}
	}

	if d.secondary != nil {
		err := d.withRetry(ctx, d.secondary, maxAttempts, secondaryBackoffBase, func() error {
			return d.secondary.SendText(ctx, to, body)
		})
		if err == nil {
			return nil
		}
		if IsFatal(err) {
			return d.fatal(err)
		}
		return apperrors.NewTransportFailed("message delivery failed", err)
	}

	return apperrors.NewTransportFailed("no transport available", nil)
}

// SendImage delivers an image with caption. On any failure the caption is
// sent as plain text so the destination always hears something.
func (d *Dispatcher) SendImage(ctx context.Context, dest, mediaURL, caption string) error {
	to := FormatAddress(dest)

	transport := d.primary
	if transport == nil {
		transport = d.secondary
	}
	if transport == nil {
		return apperrors.NewTransportFailed("no transport available", nil)
	}

	d.metrics.RecordDispatchAttempt()
	err := transport.SendImage(ctx, to, mediaURL, caption)
	if err == nil {
		return nil
	}
	d.metrics.RecordDispatchFailure()
	if errors.Is(err, ErrSessionDestroyed) {
		return d.fatal(&FatalError{Err: err})
	}
	d.logger.Warn("image send failed, falling back to text",
		zap.String("transport", transport.Name()),
		zap.String("to", to),
		zap.Error(err))
	return d.SendText(ctx, dest, caption, DefaultAttempts)
}

func (d *Dispatcher) withRetry(ctx context.Context, t Transport, maxAttempts int, base time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		d.metrics.RecordDispatchAttempt()
		err := fn()
		if err == nil {
			return nil
		}
		d.metrics.RecordDispatchFailure()
		lastErr = err
		if errors.Is(err, ErrSessionDestroyed) {
			return &FatalError{Err: err}
		}
		d.logger.Warn("send attempt failed",
			zap.String("transport", t.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))
		if attempt < maxAttempts {
			if err := d.sleep(ctx, time.Duration(attempt)*base); err != nil {
				return fmt.Errorf("retry wait: %w", err)
			}
		}
	}
	return lastErr
}

func (d *Dispatcher) fatal(err error) error {
	d.logger.Error("unrecoverable transport failure", zap.Error(err))
	if d.FatalHook != nil {
		d.FatalHook(err)
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
