package trail

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
)

// recordingSurface logs every draw call in order.
type recordingSurface struct {
	calls   []string
	circles []circle
	alpha   float64
	fill    rgb.Color
}

type circle struct {
	X, Y, R float64
	Alpha   float64
	Fill    rgb.Color
}

func (s *recordingSurface) Clear(w, h float64) {
	s.calls = append(s.calls, fmt.Sprintf("clear %gx%g", w, h))
	s.circles = nil
}

func (s *recordingSurface) SetFillColor(c rgb.Color) {
	s.calls = append(s.calls, "fill "+c.Hex())
	s.fill = c
}

func (s *recordingSurface) SetAlpha(a float64) {
	s.calls = append(s.calls, fmt.Sprintf("alpha %.3f", a))
	s.alpha = a
}

func (s *recordingSurface) DrawFilledCircle(x, y, r float64) {
	s.calls = append(s.calls, fmt.Sprintf("circle %g,%g", x, y))
	s.circles = append(s.circles, circle{X: x, Y: y, R: r, Alpha: s.alpha, Fill: s.fill})
}

var screen = Viewport{Width: 800, Height: 600}

// TestBufferLengthIsBounded verifies len == min(samples, Capacity).
func TestBufferLengthIsBounded(t *testing.T) {
	r := NewRenderer(&recordingSurface{})
	for n := 1; n <= 50; n++ {
		r.OnSample(motion.Sample{X: float64(n) / 10}, screen)
		require.Len(t, r.Points(), min(n, Capacity), "after %d samples", n)
	}
}

// TestBufferEvictsOldestFirst verifies FIFO order after wraparound.
func TestBufferEvictsOldestFirst(t *testing.T) {
	b := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Push(Point{X: float64(i)})
	}
	want := []Point{{X: 3}, {X: 4}, {X: 5}}
	if diff := cmp.Diff(want, b.Points()); diff != "" {
		t.Errorf("Points() mismatch (-want +got):\n%s", diff)
	}

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Points())
}

// TestClassifyBoundaries verifies both thresholds are strict.
func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		speed float64
		want  SpeedClass
	}{
		{0, SpeedLow},
		{1.5, SpeedLow},
		{1.5000001, SpeedMedium},
		{4.0, SpeedMedium},
		{4.0000001, SpeedHigh},
		{100, SpeedHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.speed), "Classify(%v)", tt.speed)
	}

	assert.Equal(t, rgb.Red, SpeedHigh.Color())
	assert.Equal(t, rgb.Green, SpeedMedium.Color())
	assert.Equal(t, rgb.Blue, SpeedLow.Color())
}

// TestClassUsesPlanarSpeed verifies z never affects the color.
func TestClassUsesPlanarSpeed(t *testing.T) {
	r := NewRenderer(&recordingSurface{})
	r.OnSample(motion.Sample{X: 0.3, Y: 0.4, Z: 50}, screen)
	assert.Equal(t, SpeedLow, r.Class())

	r.OnSample(motion.Sample{X: 3, Y: 4}, screen)
	assert.Equal(t, SpeedHigh, r.Class())
}

// TestProjectClamps covers the worked example: x=1000 at 800x600 clamps
// to the left edge while y stays centered.
func TestProjectClamps(t *testing.T) {
	assert.Equal(t, Point{X: 0, Y: 300}, Project(motion.Sample{X: 1000}, screen))
	assert.Equal(t, Point{X: 800, Y: 600}, Project(motion.Sample{X: -1000, Y: -1000}, screen))
	assert.Equal(t, Point{X: 370, Y: 360}, Project(motion.Sample{X: 1, Y: -2}, screen))
}

// TestZeroViewport degenerates to a single point at the origin.
func TestZeroViewport(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	r.OnSample(motion.Sample{X: -3, Y: 7}, Viewport{})
	require.Len(t, surface.circles, 1)
	assert.Equal(t, 0.0, surface.circles[0].X)
	assert.Equal(t, 0.0, surface.circles[0].Y)
}

// TestAlphaRamp verifies the newest point is at MaxAlpha and the oldest
// of a full trail at MaxAlpha/Capacity.
func TestAlphaRamp(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	for i := 0; i < 30; i++ {
		r.OnSample(motion.Sample{X: 5}, screen)
	}

	require.Len(t, surface.circles, Capacity)
	assert.InDelta(t, 0.02, surface.circles[0].Alpha, 1e-12)
	assert.InDelta(t, 0.4, surface.circles[Capacity-1].Alpha, 1e-12)
	for i := 1; i < len(surface.circles); i++ {
		assert.Greater(t, surface.circles[i].Alpha, surface.circles[i-1].Alpha)
	}
	for _, c := range surface.circles {
		assert.Equal(t, Radius, c.R)
		assert.Equal(t, rgb.Red, c.Fill)
	}
	assert.Equal(t, 1.0, surface.alpha, "alpha must be reset after the batch")
}

// TestSinglePointIsAtMaxAlpha covers the first sample.
func TestSinglePointIsAtMaxAlpha(t *testing.T) {
	surface := &recordingSurface{}
	NewRenderer(surface).OnSample(motion.Sample{}, screen)
	require.Len(t, surface.circles, 1)
	assert.Equal(t, MaxAlpha, surface.circles[0].Alpha)
}

// TestDrawSequence verifies a full clear precedes each redraw.
func TestDrawSequence(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	r.OnSample(motion.Sample{X: 1}, screen)
	surface.calls = nil
	r.OnSample(motion.Sample{X: 2}, Viewport{Width: 100, Height: 50})

	want := []string{
		"clear 100x50",
		"fill #008000",
		"alpha 0.200",
		"circle 370,300",
		"alpha 0.400",
		"circle 0,25",
		"alpha 1.000",
	}
	if diff := cmp.Diff(want, surface.calls); diff != "" {
		t.Errorf("draw calls mismatch (-want +got):\n%s", diff)
	}
}

func TestReadout(t *testing.T) {
	r := NewRenderer(&recordingSurface{})
	assert.Equal(t, Readout{}, r.Readout())
	assert.Equal(t, "X: 0.00  Y: 0.00  Z: 0.00  Speed (X/Y): 0.00", r.Readout().String())

	r.OnSample(motion.Sample{X: 3, Y: -4, Z: 9.81}, screen)
	out := r.Readout()
	assert.Equal(t, 5.0, out.Speed)
	assert.Equal(t, [2]string{"Z", "9.81"}, out.Fields()[2])
	assert.Equal(t, [2]string{"Speed (X/Y)", "5.00"}, out.Fields()[3])
	assert.False(t, math.IsNaN(out.Speed))
}

func TestRendererReset(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	r.OnSample(motion.Sample{X: 1}, screen)
	r.OnSample(motion.Sample{X: 2}, screen)

	surface.calls = nil
	r.Reset(Viewport{Width: 100, Height: 50})
	assert.Empty(t, r.Points())
	assert.Equal(t, []string{"clear 100x50"}, surface.calls)

	r.OnSample(motion.Sample{X: 3}, screen)
	assert.Len(t, r.Points(), 1)
}
