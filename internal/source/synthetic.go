package source

import (
	"context"
	"math"
	"time"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// Synthetic generates smooth Lissajous motion for demos and the simulate
// command. Every GestureEvery it emits the next gesture in nod, swipe,
// circle order.
type Synthetic struct {
	Interval     time.Duration
	GestureEvery time.Duration
}

// NewSynthetic returns a 100Hz generator with a gesture every 3s.
func NewSynthetic() *Synthetic {
	return &Synthetic{Interval: 10 * time.Millisecond, GestureEvery: 3 * time.Second}
}

// SyntheticSample is the generated sample at t seconds.
func SyntheticSample(t float64) motion.Sample {
	return motion.Sample{
		X: 3 * math.Sin(0.9*t),
		Y: 2.5 * math.Sin(1.3*t+math.Pi/4),
		Z: 9.8 + 0.3*math.Sin(0.5*t),
	}
}

var syntheticGestures = [...]motion.Gesture{motion.GestureNod, motion.GestureSwipe, motion.GestureCircle}

// Subscribe implements motion.Source. It runs until ctx is done.
func (s *Synthetic) Subscribe(ctx context.Context, h motion.Handler) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	next := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(start)
			r := motion.NewReading(SyntheticSample(elapsed.Seconds()))
			r.Timestamp = now.UnixNano()
			if s.GestureEvery > 0 && elapsed >= time.Duration(next+1)*s.GestureEvery {
				r.Gesture = syntheticGestures[next%len(syntheticGestures)]
				next++
			}
			h(r)
		}
	}
}
