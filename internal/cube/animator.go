// Package cube drives the rotating cube: continuous rotation from the
// sample stream and short gesture-triggered overrides of its color and
// scale.
//
// Gesture effects follow a small state machine:
//
//	Baseline --gesture--> Active --500ms--> Baseline
//	Active   --gesture--> Active (window restarts)
//
// Only one revert timer is ever pending. It is stopped before a new one is
// scheduled, so a stale revert can never fire over a newer effect.
package cube

import (
	"time"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
)

const (
	// EffectWindow is how long a gesture override stays visible.
	EffectWindow = 500 * time.Millisecond
	// RotationDivisor scales sample axes into per-tick radians.
	RotationDivisor = 100.0
	// CirclePulse is the one-off z rotation added by a circle gesture.
	CirclePulse = 1.0
	// SwipeScale is the uniform scale applied by a swipe.
	SwipeScale = 1.5
)

// Vec3 is a per-axis triple used for rotation and scale.
type Vec3 struct {
	X, Y, Z float64
}

// Uniform returns a Vec3 with every axis set to v.
func Uniform(v float64) Vec3 { return Vec3{v, v, v} }

// Mesh is the 3D object being animated.
type Mesh interface {
	SetRotation(r Vec3)
	SetScale(s Vec3)
	SetColor(c rgb.Color)
}

// Timer is a pending one-shot task.
type Timer interface {
	// Stop prevents the task from running. It reports whether the task
	// was still pending.
	Stop() bool
}

// Scheduler runs fn once after d on the animation thread.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// State is the animation state owned by an Animator. Rotation is
// cumulative and never reset; Color and Scale revert after each effect
// window.
type State struct {
	Rotation Vec3
	Scale    float64
	Color    rgb.Color
	// Active is the gesture whose effect window is open, or GestureNone.
	Active motion.Gesture
}

// Baseline is the cube's resting appearance.
func Baseline() State {
	return State{Scale: 1, Color: rgb.CubeBlue}
}

// Step advances rotation by one render tick.
func Step(st State, s motion.Sample) State {
	st.Rotation.X += s.X / RotationDivisor
	st.Rotation.Y += s.Y / RotationDivisor
	st.Rotation.Z += s.Z / RotationDivisor
	return st
}

// ApplyGesture returns the state with g's override applied. GestureNone
// and unknown gestures leave the state untouched.
func ApplyGesture(st State, g motion.Gesture) State {
	switch g {
	case motion.GestureNod:
		st.Color = rgb.White
	case motion.GestureSwipe:
		st.Color = rgb.RedTint
		st.Scale = SwipeScale
	case motion.GestureCircle:
		st.Color = rgb.Purple
		st.Rotation.Z += CirclePulse
	default:
		return st
	}
	st.Active = g
	return st
}

// Revert restores color and scale. Rotation, including pulses, is kept.
func Revert(st State) State {
	base := Baseline()
	st.Color = base.Color
	st.Scale = base.Scale
	st.Active = motion.GestureNone
	return st
}

// Animator applies State to a Mesh. It is not safe for concurrent use;
// every method, and every callback it schedules, runs on one thread.
type Animator struct {
	mesh   Mesh
	sched  Scheduler
	state  State
	revert Timer
	closed bool
}

// NewAnimator creates an animator and puts mesh into the baseline state.
func NewAnimator(mesh Mesh, sched Scheduler) *Animator {
	a := &Animator{
		mesh:  mesh,
		sched: sched,
		state: Baseline(),
	}
	a.apply()
	return a
}

// Tick advances rotation by one frame using the latest sample.
func (a *Animator) Tick(s motion.Sample) {
	a.state = Step(a.state, s)
	a.mesh.SetRotation(a.state.Rotation)
}

// OnGesture starts or restarts the effect window for g.
func (a *Animator) OnGesture(g motion.Gesture) {
	if a.closed || g == motion.GestureNone || !g.Valid() {
		return
	}

	a.state = ApplyGesture(a.state, g)
	a.apply()

	a.cancelRevert()
	a.revert = a.sched.AfterFunc(EffectWindow, a.onRevert)
}

func (a *Animator) onRevert() {
	a.revert = nil
	a.state = Revert(a.state)
	a.apply()
}

// State returns a copy of the current state.
func (a *Animator) State() State { return a.state }

// Pending reports whether a revert is scheduled.
func (a *Animator) Pending() bool { return a.revert != nil }

// Close cancels any pending revert. Later gestures are ignored. Close is
// idempotent.
func (a *Animator) Close() {
	a.cancelRevert()
	a.closed = true
}

func (a *Animator) cancelRevert() {
	if a.revert != nil {
		a.revert.Stop()
		a.revert = nil
	}
}

func (a *Animator) apply() {
	a.mesh.SetRotation(a.state.Rotation)
	a.mesh.SetScale(Uniform(a.state.Scale))
	a.mesh.SetColor(a.state.Color)
}
