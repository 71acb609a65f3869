package tui

import (
	"context"
	"errors"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// feed runs a source on its own goroutine and buffers readings for the
// UI loop. The readings channel is closed once the source returns.
type feed struct {
	readings chan motion.Reading
	err      error
	cancel   context.CancelFunc
}

func startFeed(ctx context.Context, src motion.Source, buffer int) *feed {
	ctx, cancel := context.WithCancel(ctx)
	f := &feed{readings: make(chan motion.Reading, buffer), cancel: cancel}
	go func() {
		defer close(f.readings)
		err := src.Subscribe(ctx, func(r motion.Reading) {
			select {
			case f.readings <- r:
			case <-ctx.Done():
			}
		})
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		// Published to readers by the close of f.readings.
		f.err = err
	}()
	return f
}

func (f *feed) stop() { f.cancel() }
