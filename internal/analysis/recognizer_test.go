package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// wave builds one window of samples from a generator over one period.
func wave(n int, gen func(phase float64) motion.Sample) []motion.Sample {
	out := make([]motion.Sample, n)
	for i := range out {
		out[i] = gen(2 * math.Pi * float64(i) / float64(n))
	}
	return out
}

func TestClassifyWindows(t *testing.T) {
	cfg := DefaultRecognizerConfig()
	tests := []struct {
		name string
		gen  func(p float64) motion.Sample
		want motion.Gesture
	}{
		{"still", func(p float64) motion.Sample { return motion.Sample{Z: 9.8} }, motion.GestureNone},
		{"jitter", func(p float64) motion.Sample { return motion.Sample{X: 0.1 * math.Sin(p*7)} }, motion.GestureNone},
		{"circle", func(p float64) motion.Sample {
			return motion.Sample{X: 4 * math.Cos(p), Y: 4 * math.Sin(p), Z: 9.8}
		}, motion.GestureCircle},
		{"swipe", func(p float64) motion.Sample { return motion.Sample{X: 6 * math.Sin(p), Z: 9.8} }, motion.GestureSwipe},
		{"diagonal swipe", func(p float64) motion.Sample {
			return motion.Sample{X: 5 * math.Sin(p), Y: 4 * math.Sin(p)}
		}, motion.GestureSwipe},
		{"nod", func(p float64) motion.Sample { return motion.Sample{Y: 3 * math.Sin(2*p), Z: 9.8 + math.Sin(p)} }, motion.GestureNod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.Classify(Extract(wave(cfg.Window, tt.gen)))
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestExtractFlatAxis verifies correlation is zero, not NaN, for a flat axis.
func TestExtractFlatAxis(t *testing.T) {
	f := Extract(wave(50, func(p float64) motion.Sample { return motion.Sample{X: math.Sin(p)} }))
	assert.Zero(t, f.CorrXY)
	assert.Zero(t, f.StdY)
	assert.Greater(t, f.StdX, 0.5)
}

// TestRecognizerFiresOncePerMovement verifies the window must fill first
// and that the cooldown suppresses repeats.
func TestRecognizerFiresOncePerMovement(t *testing.T) {
	r := NewRecognizer(RecognizerConfig{Window: 20})
	samples := wave(20, func(p float64) motion.Sample { return motion.Sample{X: 6 * math.Sin(p)} })

	var fired []motion.Gesture
	for round := 0; round < 3; round++ {
		for _, s := range samples {
			if g := r.Feed(s); g != motion.GestureNone {
				fired = append(fired, g)
			}
		}
	}
	// Fires when the first window fills, sleeps one window, then fires
	// again on the first sample after the cooldown.
	assert.Equal(t, []motion.Gesture{motion.GestureSwipe, motion.GestureSwipe}, fired)

	r.Reset()
	assert.Equal(t, motion.GestureNone, r.Feed(samples[0]))
}
