package scene

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mr-Dark-debug/motiontrail/internal/cube"
)

// Dispatcher moves timer and ticker callbacks onto the loop thread. Timer
// goroutines only enqueue work; the owner of the loop drains Tasks and
// runs each task itself, so scene state is only touched from one place.
type Dispatcher struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewDispatcher creates a dispatcher with room for buffer queued tasks.
func NewDispatcher(buffer int) *Dispatcher {
	return &Dispatcher{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Tasks is the queue the loop thread drains.
func (d *Dispatcher) Tasks() <-chan func() { return d.tasks }

// Done is closed by Close.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Close stops accepting work. Pending timers become no-ops.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.done) })
}

// post queues fn unless the dispatcher closes or stop fires first. A nil
// stop never fires.
func (d *Dispatcher) post(fn func(), stop <-chan struct{}) bool {
	select {
	case d.tasks <- fn:
		return true
	case <-d.done:
		return false
	case <-stop:
		return false
	}
}

// loopTimer is only read and written on the loop thread, except for the
// underlying time.Timer.
type loopTimer struct {
	timer *time.Timer
	done  bool
}

// Stop marks the timer spent. A callback already queued on the loop will
// see the mark and skip.
func (t *loopTimer) Stop() bool {
	pending := !t.done
	t.done = true
	t.timer.Stop()
	return pending
}

// AfterFunc implements cube.Scheduler.
func (d *Dispatcher) AfterFunc(dur time.Duration, fn func()) cube.Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(dur, func() {
		d.post(func() {
			if t.done {
				return
			}
			t.done = true
			fn()
		}, nil)
	})
	return t
}

// Every implements Ticker. At most one frame is queued at a time; ticks
// that arrive while a frame is still waiting are dropped.
func (d *Dispatcher) Every(interval time.Duration, frame func()) (cancel func()) {
	cancel, _ = d.every(interval, frame)
	return cancel
}

// every also returns a channel closed when the ticker goroutine exits.
func (d *Dispatcher) every(interval time.Duration, frame func()) (cancel func(), exited <-chan struct{}) {
	stop := make(chan struct{})
	gone := make(chan struct{})
	var queued atomic.Bool
	cancelled := false

	run := func() {
		queued.Store(false)
		if !cancelled {
			frame()
		}
	}

	go func() {
		defer close(gone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-d.done:
				return
			case <-ticker.C:
				if queued.CompareAndSwap(false, true) && !d.post(run, stop) {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelled = true
			close(stop)
		})
	}, gone
}
