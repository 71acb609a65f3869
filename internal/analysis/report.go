package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Mr-Dark-debug/motiontrail/internal/database"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/trail"
	"github.com/Mr-Dark-debug/motiontrail/pkg/timeutil"
)

// Analyzer builds reports over recorded sessions.
type Analyzer struct {
	store database.Store
}

// NewAnalyzer creates an analyzer backed by the given store.
func NewAnalyzer(store database.Store) *Analyzer {
	return &Analyzer{store: store}
}

// SessionReport summarizes one recording.
type SessionReport struct {
	Session     *database.Session `json:"session"`
	GeneratedAt string            `json:"generated_at"`

	Samples    int           `json:"samples"`
	Duration   time.Duration `json:"duration_ns"`
	SampleRate float64       `json:"sample_rate_hz"`

	PeakSpeed float64 `json:"peak_speed"`
	MeanSpeed float64 `json:"mean_speed"`
	// SpeedClasses counts samples per trail speed class.
	SpeedClasses map[string]int `json:"speed_classes"`

	// Gestures counts recorded gestures by name.
	Gestures map[string]int `json:"gestures"`
	// Recognized counts gestures the offline recognizer finds in the
	// samples.
	Recognized map[string]int `json:"recognized"`

	// TiltDrift is the slope of z over time (units per second) from a
	// least-squares fit; TiltFit is its R².
	TiltDrift float64 `json:"tilt_drift"`
	TiltFit   float64 `json:"tilt_fit"`

	Warnings []string `json:"warnings,omitempty"`
}

// AnalyzeSession computes a report for a recorded session.
func (a *Analyzer) AnalyzeSession(sessionID string) (*SessionReport, error) {
	sess, err := a.store.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	samples, err := a.store.QuerySamples(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading samples: %w", err)
	}
	gestures, err := a.store.QueryGestures(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading gestures: %w", err)
	}

	report := &SessionReport{
		Session:      sess,
		GeneratedAt:  time.Now().Format(time.RFC3339),
		Samples:      len(samples),
		SpeedClasses: map[string]int{},
		Gestures:     map[string]int{},
		Recognized:   map[string]int{},
	}

	for _, g := range gestures {
		report.Gestures[g.Gesture]++
	}

	if len(samples) == 0 {
		report.Warnings = append(report.Warnings, "Session has no samples.")
		return report, nil
	}

	speeds := make([]float64, len(samples))
	secs := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	rec := NewRecognizer(DefaultRecognizerConfig())
	base := samples[0].Timestamp

	for i, r := range samples {
		s := motion.Sample{X: r.X, Y: r.Y, Z: r.Z}
		speeds[i] = s.PlanarSpeed()
		secs[i] = float64(r.Timestamp-base) / float64(time.Second)
		zs[i] = r.Z

		report.SpeedClasses[trail.Classify(speeds[i]).String()]++
		if speeds[i] > report.PeakSpeed {
			report.PeakSpeed = speeds[i]
		}
		if g := rec.Feed(s); g != motion.GestureNone {
			report.Recognized[g.String()]++
		}
	}

	report.MeanSpeed = stat.Mean(speeds, nil)
	report.Duration = time.Duration(samples[len(samples)-1].Timestamp - base)
	if report.Duration > 0 {
		report.SampleRate = float64(len(samples)-1) / report.Duration.Seconds()
	}

	if len(samples) >= 2 && secs[len(secs)-1] > 0 {
		alpha, beta := stat.LinearRegression(secs, zs, nil, false)
		report.TiltDrift = beta
		if fit := stat.RSquared(secs, zs, nil, alpha, beta); !math.IsNaN(fit) {
			report.TiltFit = fit
		}
	}

	if report.SampleRate > 0 && report.SampleRate < 10 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Low sample rate (%.1f Hz). Trails will look choppy.", report.SampleRate))
	}
	if report.TiltFit > 0.8 && report.TiltDrift*report.TiltDrift > 0.01 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Steady z drift of %.3f/s (R²=%.2f). Sensor may be tilting or uncalibrated.",
				report.TiltDrift, report.TiltFit))
	}

	return report, nil
}

// FormatReport renders a report as markdown.
func (a *Analyzer) FormatReport(report *SessionReport) string {
	var b strings.Builder

	b.WriteString("# motiontrail Session Report\n\n")
	if report.Session != nil {
		b.WriteString(fmt.Sprintf("**Session:** `%s`\n", report.Session.SessionID))
		if report.Session.Device != "" {
			b.WriteString(fmt.Sprintf("**Device:** %s\n", report.Session.Device))
		}
		b.WriteString(fmt.Sprintf("**Started:** %s\n", timeutil.FormatTimestampFull(report.Session.StartTime)))
	}
	b.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	b.WriteString(fmt.Sprintf("| Samples | %d |\n", report.Samples))
	b.WriteString(fmt.Sprintf("| Duration | %s |\n", timeutil.FormatDuration(report.Duration.Milliseconds())))
	b.WriteString(fmt.Sprintf("| Sample Rate | %.1f Hz |\n", report.SampleRate))
	b.WriteString(fmt.Sprintf("| Peak Speed (X/Y) | %.2f |\n", report.PeakSpeed))
	b.WriteString(fmt.Sprintf("| Mean Speed (X/Y) | %.2f |\n", report.MeanSpeed))
	b.WriteString(fmt.Sprintf("| Z Drift | %.3f/s (R² %.2f) |\n\n", report.TiltDrift, report.TiltFit))

	if report.Samples > 0 {
		b.WriteString("## Speed Classes\n\n")
		b.WriteString("| Class | Samples | % |\n")
		b.WriteString("|-------|---------|---|\n")
		for _, class := range []trail.SpeedClass{trail.SpeedLow, trail.SpeedMedium, trail.SpeedHigh} {
			n := report.SpeedClasses[class.String()]
			b.WriteString(fmt.Sprintf("| %s | %d | %.1f%% |\n",
				class, n, 100*float64(n)/float64(report.Samples)))
		}
		b.WriteString("\n")
	}

	if len(report.Gestures) > 0 || len(report.Recognized) > 0 {
		b.WriteString("## Gestures\n\n")
		b.WriteString("| Gesture | Recorded | Recognized |\n")
		b.WriteString("|---------|----------|------------|\n")
		for _, name := range gestureNames(report) {
			b.WriteString(fmt.Sprintf("| %s | %d | %d |\n",
				name, report.Gestures[name], report.Recognized[name]))
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			b.WriteString(fmt.Sprintf("- %s\n", w))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func gestureNames(report *SessionReport) []string {
	seen := map[string]bool{}
	for name := range report.Gestures {
		seen[name] = true
	}
	for name := range report.Recognized {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
