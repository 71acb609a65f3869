package motion

import (
	"context"
	"errors"
)

// ErrSourceClosed is returned by a source that ended on its own
// (end of stream, closed port) rather than by cancellation.
var ErrSourceClosed = errors.New("motion: source closed")

// Handler receives readings in arrival order. It is called from the
// source's goroutine and must not block for long.
type Handler func(Reading)

// Source delivers readings to a handler until ctx is done or the source
// fails. Subscribe blocks for the lifetime of the subscription.
type Source interface {
	Subscribe(ctx context.Context, h Handler) error
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, h Handler) error

func (f SourceFunc) Subscribe(ctx context.Context, h Handler) error {
	return f(ctx, h)
}
