package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/motiontrail/internal/database"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// Replay plays a recorded session back, paced by the recorded timestamps.
// Speed scales playback (2 is twice as fast); zero or less replays with no
// pacing at all.
type Replay struct {
	Store     database.Store
	SessionID string
	Speed     float64
	Log       *zap.Logger
}

// Readings merges a session's samples and gestures into one reading
// stream ordered by timestamp. A gesture recorded at the same instant as
// a sample rides on that sample's reading.
func Readings(store database.Store, sessionID string) ([]motion.Reading, error) {
	samples, err := store.QuerySamples(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading samples: %w", err)
	}
	gestures, err := store.QueryGestures(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading gestures: %w", err)
	}

	out := make([]motion.Reading, 0, len(samples)+len(gestures))
	at := make(map[int64]int, len(samples))
	for _, s := range samples {
		r := motion.NewReading(motion.Sample{X: s.X, Y: s.Y, Z: s.Z})
		r.Timestamp = s.Timestamp
		at[s.Timestamp] = len(out)
		out = append(out, r)
	}
	for _, g := range gestures {
		gesture := motion.ParseGesture(g.Gesture)
		if i, ok := at[g.Timestamp]; ok && out[i].Gesture == motion.GestureNone {
			out[i].Gesture = gesture
			continue
		}
		out = append(out, motion.Reading{Gesture: gesture, Timestamp: g.Timestamp})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// Subscribe implements motion.Source. It returns motion.ErrSourceClosed
// once the recording is exhausted.
func (r *Replay) Subscribe(ctx context.Context, h motion.Handler) error {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	readings, err := Readings(r.Store, r.SessionID)
	if err != nil {
		return err
	}
	log.Info("replaying session",
		zap.String("session_id", r.SessionID),
		zap.Int("readings", len(readings)),
		zap.Float64("speed", r.Speed))

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for i, reading := range readings {
		if i > 0 && r.Speed > 0 {
			gap := time.Duration(float64(reading.Timestamp-readings[i-1].Timestamp) / r.Speed)
			if gap > 0 {
				timer.Reset(gap)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		h(reading)
	}
	return motion.ErrSourceClosed
}
