// Package motion defines the 3-axis sample and gesture types shared by
// every stage of the pipeline, and the Source contract that feeds them.
package motion

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFinite is returned for readings carrying NaN or infinite axes.
var ErrNonFinite = errors.New("non-finite axis value")

// Sample is the latest 3-axis reading. A new sample replaces the previous
// one wholesale.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlanarSpeed is the magnitude of the x/y components. Z carries gravity
// and tilt noise and is left out.
func (s Sample) PlanarSpeed() float64 {
	return math.Hypot(s.X, s.Y)
}

func (s Sample) String() string {
	return fmt.Sprintf("{x:%.2f y:%.2f z:%.2f}", s.X, s.Y, s.Z)
}

// Apply merges a reading into the sample. Axes the reading leaves unset
// keep their current value.
func (s Sample) Apply(r Reading) Sample {
	if r.X != nil {
		s.X = *r.X
	}
	if r.Y != nil {
		s.Y = *r.Y
	}
	if r.Z != nil {
		s.Z = *r.Z
	}
	return s
}

// Reading is one update as it arrives from a source. Every field is
// optional: devices may publish a partial sample, a gesture, or both.
type Reading struct {
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Z         *float64 `json:"z,omitempty"`
	Gesture   Gesture  `json:"gesture,omitempty"`
	Timestamp int64    `json:"ts,omitempty"` // Unix nanoseconds
}

// NewReading builds a reading carrying a full sample.
func NewReading(s Sample) Reading {
	return Reading{X: Float(s.X), Y: Float(s.Y), Z: Float(s.Z)}
}

// HasSample reports whether any axis is present.
func (r Reading) HasSample() bool {
	return r.X != nil || r.Y != nil || r.Z != nil
}

// Validate rejects NaN and infinite axes. One such value would stick in
// every running total downstream and cannot be encoded as JSON or stored.
func (r Reading) Validate() error {
	for _, a := range []struct {
		name string
		v    *float64
	}{{"x", r.X}, {"y", r.Y}, {"z", r.Z}} {
		if a.v != nil && (math.IsNaN(*a.v) || math.IsInf(*a.v, 0)) {
			return fmt.Errorf("%w: %s=%v", ErrNonFinite, a.name, *a.v)
		}
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
