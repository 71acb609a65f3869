// Package trail turns the live sample stream into a fading 2D trail.
//
// Every sample is projected to a screen point, pushed into a bounded
// buffer, and the whole buffer is redrawn from scratch: oldest points
// faintest, newest at MaxAlpha, all in the color of the current speed
// class.
package trail

import (
	"fmt"
	"math"
	"strings"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
)

const (
	// Scale converts sensor units to pixels.
	Scale = 30.0
	// Capacity is the trail length in points.
	Capacity = 20
	// Radius of every trail circle, in pixels.
	Radius = 10.0
	// MaxAlpha is the opacity of the newest point. The trail never
	// becomes fully opaque.
	MaxAlpha = 0.4
)

// Surface is the 2D drawing target.
type Surface interface {
	// Clear wipes the region [0,width]x[0,height].
	Clear(width, height float64)
	SetFillColor(c rgb.Color)
	// SetAlpha sets the global alpha for subsequent draws.
	SetAlpha(alpha float64)
	DrawFilledCircle(x, y, radius float64)
}

// Viewport is the drawable size in pixels.
type Viewport struct {
	Width, Height float64
}

// Project maps a sample to a clamped screen point. Both axes are negated
// because the sensor frame is mirrored relative to the screen.
func Project(s motion.Sample, vp Viewport) Point {
	x := -s.X*Scale + vp.Width/2
	y := -s.Y*Scale + vp.Height/2
	return Point{
		X: clamp(x, 0, vp.Width),
		Y: clamp(y, 0, vp.Height),
	}
}

// Alpha returns the opacity of the point at index i (oldest first) in a
// trail of n points.
func Alpha(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(i+1) / float64(n) * MaxAlpha
}

// Renderer owns the trail buffer and draws it onto a Surface.
type Renderer struct {
	surface Surface
	buffer  *Buffer
	latest  motion.Sample
	class   SpeedClass
}

// NewRenderer creates a renderer drawing onto surface.
func NewRenderer(surface Surface) *Renderer {
	return &Renderer{
		surface: surface,
		buffer:  NewBuffer(Capacity),
	}
}

// OnSample records s and redraws the full trail. The viewport is taken
// per call so resizes apply immediately.
func (r *Renderer) OnSample(s motion.Sample, vp Viewport) {
	r.latest = s
	r.buffer.Push(Project(s, vp))
	r.class = Classify(s.PlanarSpeed())
	r.draw(vp)
}

func (r *Renderer) draw(vp Viewport) {
	r.surface.Clear(vp.Width, vp.Height)

	points := r.buffer.Points()
	if len(points) == 0 {
		return
	}

	r.surface.SetFillColor(r.class.Color())
	for i, p := range points {
		r.surface.SetAlpha(Alpha(i, len(points)))
		r.surface.DrawFilledCircle(p.X, p.Y, Radius)
	}
	r.surface.SetAlpha(1)
}

// Reset drops the trail and clears the surface at vp. Points projected for
// another viewport would be drawn in the wrong place.
func (r *Renderer) Reset(vp Viewport) {
	r.buffer.Reset()
	r.surface.Clear(vp.Width, vp.Height)
}

// Points returns the current trail, oldest first.
func (r *Renderer) Points() []Point { return r.buffer.Points() }

// Class returns the speed class of the latest sample.
func (r *Renderer) Class() SpeedClass { return r.class }

// Readout is the textual projection of the latest sample.
type Readout struct {
	X, Y, Z float64
	Speed   float64
}

// Readout returns the latest sample and its planar speed; all zero
// before the first sample.
func (r *Renderer) Readout() Readout {
	return Readout{
		X:     r.latest.X,
		Y:     r.latest.Y,
		Z:     r.latest.Z,
		Speed: r.latest.PlanarSpeed(),
	}
}

// Fields returns the readout as label/value pairs, values with two
// decimals.
func (o Readout) Fields() [][2]string {
	return [][2]string{
		{"X", fmt.Sprintf("%.2f", o.X)},
		{"Y", fmt.Sprintf("%.2f", o.Y)},
		{"Z", fmt.Sprintf("%.2f", o.Z)},
		{"Speed (X/Y)", fmt.Sprintf("%.2f", o.Speed)},
	}
}

func (o Readout) String() string {
	parts := make([]string, 0, 4)
	for _, f := range o.Fields() {
		parts = append(parts, f[0]+": "+f[1])
	}
	return strings.Join(parts, "  ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
