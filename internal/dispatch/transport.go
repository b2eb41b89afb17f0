package dispatch

import (
	"context"
	"errors"
	"fmt"
)

// Transport sends messages through one concrete channel backend.
type Transport interface {
	Name() string
	SendText(ctx context.Context, to, body string) error
	SendImage(ctx context.Context, to, mediaURL, caption string) error
}

// ErrSessionDestroyed signals that the secondary session transport lost its
// execution context. The process cannot recover; the supervisor must
// restart it.
var ErrSessionDestroyed = errors.New("session execution context destroyed")

// FatalError wraps an unrecoverable transport failure.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal transport failure: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err signals an unrecoverable transport failure.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
