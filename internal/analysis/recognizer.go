// Package analysis provides lightweight, deterministic analysis of motion
// streams. All methods are statistical; no trained model is involved.
//
// Key capabilities:
//   - Live gesture recognition over a sliding sample window
//   - Session reports: speed distribution, peaks, gesture counts
//   - HTML chart export of a recorded session
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// RecognizerConfig tunes the gesture recognizer.
type RecognizerConfig struct {
	// Window is the number of samples classified at once. 101 samples is
	// one second at 100Hz.
	Window int `yaml:"window"`
	// MinDeviation is the smallest per-axis standard deviation that
	// counts as deliberate movement.
	MinDeviation float64 `yaml:"min_deviation"`
	// CircleBalance is the minimum ratio between the x and y deviations
	// for a circle.
	CircleBalance float64 `yaml:"circle_balance"`
	// CircleMaxCorrelation is the largest |corr(x, y)| for a circle. A
	// circle traces x and y out of phase; a diagonal swipe does not.
	CircleMaxCorrelation float64 `yaml:"circle_max_correlation"`
}

// DefaultRecognizerConfig returns thresholds suited to raw accelerometer
// readings in m/s².
func DefaultRecognizerConfig() RecognizerConfig {
	return RecognizerConfig{
		Window:               101,
		MinDeviation:         1.0,
		CircleBalance:        0.5,
		CircleMaxCorrelation: 0.5,
	}
}

// Features summarizes one window.
type Features struct {
	StdX, StdY, StdZ float64
	// CorrXY is the Pearson correlation of x and y, or 0 when either
	// axis is flat.
	CorrXY float64
}

// Extract computes window features.
func Extract(window []motion.Sample) Features {
	xs := make([]float64, len(window))
	ys := make([]float64, len(window))
	zs := make([]float64, len(window))
	for i, s := range window {
		xs[i], ys[i], zs[i] = s.X, s.Y, s.Z
	}

	f := Features{
		StdX: stat.PopStdDev(xs, nil),
		StdY: stat.PopStdDev(ys, nil),
		StdZ: stat.PopStdDev(zs, nil),
	}
	if f.StdX > 0 && f.StdY > 0 {
		if c := stat.Correlation(xs, ys, nil); !math.IsNaN(c) {
			f.CorrXY = c
		}
	}
	return f
}

// Classify maps window features to a gesture.
//
//	circle: x and y both active, comparable, and out of phase
//	swipe:  x is the dominant axis
//	nod:    y or z is the dominant axis
func (cfg RecognizerConfig) Classify(f Features) motion.Gesture {
	peak := math.Max(f.StdX, math.Max(f.StdY, f.StdZ))
	if peak < cfg.MinDeviation {
		return motion.GestureNone
	}

	lo, hi := math.Min(f.StdX, f.StdY), math.Max(f.StdX, f.StdY)
	if lo >= cfg.MinDeviation && lo/hi >= cfg.CircleBalance &&
		math.Abs(f.CorrXY) <= cfg.CircleMaxCorrelation {
		return motion.GestureCircle
	}

	if f.StdX == peak {
		return motion.GestureSwipe
	}
	return motion.GestureNod
}

// Recognizer classifies a live stream. After a gesture fires, the next
// full window is skipped so a single movement is reported once.
type Recognizer struct {
	cfg      RecognizerConfig
	window   []motion.Sample
	pos      int
	full     bool
	cooldown int
}

// NewRecognizer creates a recognizer; zero fields in cfg take defaults.
func NewRecognizer(cfg RecognizerConfig) *Recognizer {
	def := DefaultRecognizerConfig()
	if cfg.Window <= 1 {
		cfg.Window = def.Window
	}
	if cfg.MinDeviation <= 0 {
		cfg.MinDeviation = def.MinDeviation
	}
	if cfg.CircleBalance <= 0 {
		cfg.CircleBalance = def.CircleBalance
	}
	if cfg.CircleMaxCorrelation <= 0 {
		cfg.CircleMaxCorrelation = def.CircleMaxCorrelation
	}
	return &Recognizer{cfg: cfg, window: make([]motion.Sample, cfg.Window)}
}

// Feed adds a sample and returns the gesture it completes, if any.
func (r *Recognizer) Feed(s motion.Sample) motion.Gesture {
	r.window[r.pos] = s
	r.pos++
	if r.pos == len(r.window) {
		r.pos = 0
		r.full = true
	}

	if r.cooldown > 0 {
		r.cooldown--
		return motion.GestureNone
	}
	if !r.full {
		return motion.GestureNone
	}

	g := r.cfg.Classify(Extract(r.ordered()))
	if g != motion.GestureNone {
		r.cooldown = len(r.window)
	}
	return g
}

// Reset discards buffered samples.
func (r *Recognizer) Reset() {
	r.pos, r.full, r.cooldown = 0, false, 0
}

func (r *Recognizer) ordered() []motion.Sample {
	out := make([]motion.Sample, 0, len(r.window))
	out = append(out, r.window[r.pos:]...)
	return append(out, r.window[:r.pos]...)
}
