package scene

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Mr-Dark-debug/motiontrail/internal/cube"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
	"github.com/Mr-Dark-debug/motiontrail/internal/trail"
)

type nullSurface struct{ circles int }

func (s *nullSurface) Clear(w, h float64)                { s.circles = 0 }
func (s *nullSurface) SetFillColor(rgb.Color)            {}
func (s *nullSurface) SetAlpha(float64)                  {}
func (s *nullSurface) DrawFilledCircle(x, y, r float64) { s.circles++ }

type nullMesh struct {
	rotation cube.Vec3
	scale    cube.Vec3
	color    rgb.Color
}

func (m *nullMesh) SetRotation(r cube.Vec3) { m.rotation = r }
func (m *nullMesh) SetScale(s cube.Vec3)    { m.scale = s }
func (m *nullMesh) SetColor(c rgb.Color)    { m.color = c }

type fixture struct {
	scene    *Scene
	clock    *ManualClock
	surface  *nullSurface
	mesh     *nullMesh
	releases int
}

func newFixture(t *testing.T, releaseErr error) *fixture {
	t.Helper()
	f := &fixture{clock: NewManualClock(), surface: &nullSurface{}, mesh: &nullMesh{}}
	sc, err := New(Surfaces{
		Trail: f.surface,
		Mesh:  f.mesh,
		Release: func() error {
			f.releases++
			return releaseErr
		},
	}, f.clock, zaptest.NewLogger(t))
	require.NoError(t, err)
	sc.Resize(trail.Viewport{Width: 800, Height: 600})
	f.scene = sc
	return f
}

func TestNewRequiresSurfaces(t *testing.T) {
	_, err := New(Surfaces{Mesh: &nullMesh{}}, NewManualClock(), nil)
	assert.ErrorIs(t, err, ErrNoSurface)

	_, err = New(Surfaces{Trail: &nullSurface{}}, NewManualClock(), nil)
	assert.ErrorIs(t, err, ErrNoSurface)
}

// TestRenderLoopTicksCube drives the loop synchronously and checks the
// cube rotates by the latest sample on every frame.
func TestRenderLoopTicksCube(t *testing.T) {
	f := newFixture(t, nil)
	f.scene.Start(f.clock, 10*time.Millisecond)
	f.scene.Apply(motion.NewReading(motion.Sample{X: 100}))

	f.clock.Advance(100 * time.Millisecond)

	frames, samples := f.scene.Stats()
	assert.Equal(t, uint64(10), frames)
	assert.Equal(t, uint64(1), samples)
	assert.InDelta(t, 10.0, f.mesh.rotation.X, 1e-9)
}

// TestApplyKeepsMissingAxes verifies partial readings merge into the
// previous sample.
func TestApplyKeepsMissingAxes(t *testing.T) {
	f := newFixture(t, nil)
	f.scene.Apply(motion.Reading{X: motion.Float(1), Y: motion.Float(2), Z: motion.Float(3)})
	f.scene.Apply(motion.Reading{Y: motion.Float(-4)})

	assert.Equal(t, motion.Sample{X: 1, Y: -4, Z: 3}, f.scene.Sample())
	assert.Equal(t, 2, f.surface.circles)
	assert.Equal(t, trail.SpeedHigh, f.scene.SpeedClass())
}

// TestGestureOnlyReadingSkipsTrail verifies a gesture frame does not push
// a trail point.
func TestGestureOnlyReadingSkipsTrail(t *testing.T) {
	f := newFixture(t, nil)
	f.scene.Apply(motion.Reading{Gesture: motion.GestureSwipe})

	_, samples := f.scene.Stats()
	assert.Zero(t, samples)
	assert.Equal(t, rgb.RedTint, f.mesh.color)
	assert.Equal(t, cube.Uniform(cube.SwipeScale), f.mesh.scale)

	f.clock.Advance(cube.EffectWindow)
	assert.Equal(t, rgb.CubeBlue, f.mesh.color)
}

// TestCloseRunsOnce verifies teardown cancels the loop and the pending
// revert, releases surfaces exactly once, and ignores later input.
func TestCloseRunsOnce(t *testing.T) {
	releaseErr := errors.New("device lost")
	f := newFixture(t, releaseErr)
	f.scene.Start(f.clock, 10*time.Millisecond)
	f.scene.Gesture(motion.GestureNod)
	require.Equal(t, 2, f.clock.Pending())

	err := f.scene.Close()
	assert.ErrorIs(t, err, releaseErr)
	assert.ErrorIs(t, f.scene.Close(), releaseErr)
	assert.Equal(t, 1, f.releases)
	assert.Equal(t, 0, f.clock.Pending())

	f.clock.Advance(time.Second)
	frames, _ := f.scene.Stats()
	assert.Zero(t, frames)
	assert.Equal(t, rgb.White, f.mesh.color)

	f.scene.Apply(motion.NewReading(motion.Sample{X: 1}))
	_, samples := f.scene.Stats()
	assert.Zero(t, samples)

	f.scene.Start(f.clock, time.Millisecond)
	assert.Equal(t, 0, f.clock.Pending())
}

// TestDispatcherStoppedTimerIsInert verifies that stopping a timer whose
// callback is already queued still prevents it from running.
func TestDispatcherStoppedTimerIsInert(t *testing.T) {
	d := NewDispatcher(4)
	defer d.Close()

	ran := false
	timer := d.AfterFunc(time.Millisecond, func() { ran = true })

	var task func()
	select {
	case task = <-d.Tasks():
	case <-time.After(time.Second):
		t.Fatal("timer task was not queued")
	}

	assert.True(t, timer.Stop())
	task()
	assert.False(t, ran)
	assert.False(t, timer.Stop())
}

// TestDispatcherEvery verifies frames are delivered through the task
// queue and stop after cancel.
func TestDispatcherEvery(t *testing.T) {
	d := NewDispatcher(4)
	defer d.Close()

	frames := 0
	cancel := d.Every(time.Millisecond, func() { frames++ })

	for frames < 3 {
		select {
		case task := <-d.Tasks():
			task()
		case <-time.After(time.Second):
			t.Fatal("no frame delivered")
		}
	}

	cancel()
	cancel()
	got := frames
	// Anything still queued must be a no-op.
	for {
		select {
		case task := <-d.Tasks():
			task()
			continue
		case <-time.After(20 * time.Millisecond):
		}
		break
	}
	assert.Equal(t, got, frames)
}

// TestDispatcherEveryCancelUnblocksFullQueue verifies cancel releases a
// ticker that is waiting on a full queue, without closing the dispatcher.
func TestDispatcherEveryCancelUnblocksFullQueue(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()
	d.tasks <- func() {}

	cancel, exited := d.every(time.Millisecond, func() {})
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("ticker goroutine still blocked after cancel")
	}
}

// TestResizeDropsPointsFromOldViewport verifies samples taken before the
// first layout do not linger as points at the origin.
func TestResizeDropsPointsFromOldViewport(t *testing.T) {
	surface := &nullSurface{}
	mesh := &nullMesh{}
	sc, err := New(Surfaces{Trail: surface, Mesh: mesh}, NewManualClock(), zaptest.NewLogger(t))
	require.NoError(t, err)

	sc.Apply(motion.NewReading(motion.Sample{X: 1, Y: 1}))
	sc.Apply(motion.NewReading(motion.Sample{X: 2, Y: 2}))
	assert.Equal(t, 2, surface.circles)

	sc.Resize(trail.Viewport{Width: 800, Height: 600})
	assert.Zero(t, surface.circles)
	assert.Equal(t, motion.Sample{X: 2, Y: 2}, sc.Sample())

	sc.Apply(motion.Reading{Z: motion.Float(9.8)})
	assert.Equal(t, 1, surface.circles)

	// Same size again keeps the trail.
	sc.Resize(trail.Viewport{Width: 800, Height: 600})
	sc.Apply(motion.Reading{X: motion.Float(3)})
	assert.Equal(t, 2, surface.circles)
}
