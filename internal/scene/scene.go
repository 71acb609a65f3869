// Package scene wires the trail renderer and the cube animator to a
// shared sample stream and owns their lifecycle.
//
// A Scene is driven from a single loop thread: readings, gestures and
// frames are all applied by calling its methods from that thread, and the
// Scheduler/Ticker it is given must call back on the same thread (see
// Dispatcher and ManualClock).
package scene

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/motiontrail/internal/cube"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/trail"
)

// DefaultFrameInterval targets a 60Hz display refresh.
const DefaultFrameInterval = time.Second / 60

// ErrNoSurface is returned when a required rendering surface is missing.
var ErrNoSurface = errors.New("scene: rendering surface not provided")

// Ticker is the repeating-task capability behind the render loop.
type Ticker interface {
	Every(interval time.Duration, frame func()) (cancel func())
}

// Surfaces are the rendering targets a Scene draws on.
type Surfaces struct {
	Trail trail.Surface
	Mesh  cube.Mesh
	// Release frees surface resources on teardown. Optional.
	Release func() error
}

// Scene composes a trail renderer and a cube animator.
type Scene struct {
	trail    *trail.Renderer
	cube     *cube.Animator
	release  func() error
	log      *zap.Logger
	sample   motion.Sample
	viewport trail.Viewport

	stopLoop func()
	frames   uint64
	samples  uint64

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// New builds a scene on the given surfaces. Gesture reverts are scheduled
// on sched.
func New(s Surfaces, sched cube.Scheduler, log *zap.Logger) (*Scene, error) {
	if s.Trail == nil || s.Mesh == nil {
		return nil, ErrNoSurface
	}
	if sched == nil {
		return nil, fmt.Errorf("scene: nil scheduler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scene{
		trail:   trail.NewRenderer(s.Trail),
		cube:    cube.NewAnimator(s.Mesh, sched),
		release: s.Release,
		log:     log,
	}, nil
}

// Start begins the render loop. Calling Start on a running or closed
// scene does nothing.
func (s *Scene) Start(t Ticker, interval time.Duration) {
	if s.closed || s.stopLoop != nil {
		return
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	s.stopLoop = t.Every(interval, s.Frame)
	s.log.Debug("render loop started", zap.Duration("interval", interval))
}

// Resize sets the trail viewport used from the next sample on. A changed
// viewport drops the existing trail, including points taken before the
// first layout, when the viewport was still empty.
func (s *Scene) Resize(vp trail.Viewport) {
	if vp == s.viewport {
		return
	}
	s.viewport = vp
	if !s.closed {
		s.trail.Reset(vp)
	}
}

// Apply merges a reading into the current sample, redraws the trail and
// forwards any gesture to the cube.
func (s *Scene) Apply(r motion.Reading) {
	if s.closed {
		return
	}
	if r.HasSample() {
		s.sample = s.sample.Apply(r)
		s.samples++
		s.trail.OnSample(s.sample, s.viewport)
	}
	if r.Gesture != motion.GestureNone {
		s.Gesture(r.Gesture)
	}
}

// Gesture triggers a cube effect.
func (s *Scene) Gesture(g motion.Gesture) {
	if s.closed {
		return
	}
	s.cube.OnGesture(g)
}

// Frame is one render-loop iteration: the cube advances by the latest
// sample.
func (s *Scene) Frame() {
	if s.closed {
		return
	}
	s.frames++
	s.cube.Tick(s.sample)
}

// Sample returns the latest merged sample.
func (s *Scene) Sample() motion.Sample { return s.sample }

// Readout returns the trail readout.
func (s *Scene) Readout() trail.Readout { return s.trail.Readout() }

// SpeedClass returns the speed class of the latest sample.
func (s *Scene) SpeedClass() trail.SpeedClass { return s.trail.Class() }

// CubeState returns the cube animation state.
func (s *Scene) CubeState() cube.State { return s.cube.State() }

// Stats reports how many frames and samples the scene has processed.
func (s *Scene) Stats() (frames, samples uint64) { return s.frames, s.samples }

// Close stops the render loop, cancels any pending gesture revert and
// releases the surfaces. Only the first call does any work; later calls
// return the first call's result.
func (s *Scene) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		if s.stopLoop != nil {
			s.stopLoop()
			s.stopLoop = nil
		}
		s.cube.Close()
		if s.release != nil {
			if err := s.release(); err != nil {
				s.closeErr = fmt.Errorf("releasing surfaces: %w", err)
			}
		}
		s.log.Debug("scene closed",
			zap.Uint64("frames", s.frames),
			zap.Uint64("samples", s.samples))
	})
	return s.closeErr
}
