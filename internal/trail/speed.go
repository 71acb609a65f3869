package trail

import "github.com/Mr-Dark-debug/motiontrail/internal/rgb"

// Planar speed thresholds. Both comparisons are strict: a speed exactly on
// a threshold falls into the slower class.
const (
	MediumThreshold = 1.5
	HighThreshold   = 4.0
)

// SpeedClass buckets planar speed for coloring.
type SpeedClass int

const (
	SpeedLow SpeedClass = iota
	SpeedMedium
	SpeedHigh
)

// Classify buckets a planar speed.
func Classify(speed float64) SpeedClass {
	switch {
	case speed > HighThreshold:
		return SpeedHigh
	case speed > MediumThreshold:
		return SpeedMedium
	default:
		return SpeedLow
	}
}

// Color is the fill used for the class.
func (c SpeedClass) Color() rgb.Color {
	switch c {
	case SpeedHigh:
		return rgb.Red
	case SpeedMedium:
		return rgb.Green
	default:
		return rgb.Blue
	}
}

func (c SpeedClass) String() string {
	switch c {
	case SpeedHigh:
		return "high"
	case SpeedMedium:
		return "medium"
	default:
		return "low"
	}
}
