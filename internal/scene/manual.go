package scene

import (
	"sort"
	"time"

	"github.com/Mr-Dark-debug/motiontrail/internal/cube"
)

// ManualClock is a synchronous Scheduler and Ticker for tests and
// offline rendering. Nothing happens until Advance is called, and all
// callbacks run on the caller's goroutine.
type ManualClock struct {
	now    time.Duration
	timers []*manualTimer
	seq    int
}

type manualTimer struct {
	at       time.Duration
	interval time.Duration // zero for one-shot
	seq      int
	fn       func()
	stopped  bool
}

func (t *manualTimer) Stop() bool {
	pending := !t.stopped
	t.stopped = true
	return pending
}

// NewManualClock returns a clock at time zero.
func NewManualClock() *ManualClock { return &ManualClock{} }

// Now is the elapsed manual time.
func (c *ManualClock) Now() time.Duration { return c.now }

func (c *ManualClock) add(at, interval time.Duration, fn func()) *manualTimer {
	c.seq++
	t := &manualTimer{at: at, interval: interval, seq: c.seq, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// AfterFunc implements cube.Scheduler.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) cube.Timer {
	return c.add(c.now+d, 0, fn)
}

// Every implements Ticker.
func (c *ManualClock) Every(interval time.Duration, frame func()) (cancel func()) {
	t := c.add(c.now+interval, interval, frame)
	return func() { t.Stop() }
}

// Pending returns the number of live timers and tickers.
func (c *ManualClock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, running every callback that comes due
// in deadline order. Callbacks may schedule or stop other timers.
func (c *ManualClock) Advance(d time.Duration) {
	end := c.now + d
	for {
		next := c.next(end)
		if next == nil {
			break
		}
		c.now = next.at
		if next.interval > 0 {
			next.at += next.interval
		} else {
			next.stopped = true
		}
		next.fn()
	}
	c.now = end
	c.compact()
}

func (c *ManualClock) next(end time.Duration) *manualTimer {
	live := make([]*manualTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if !t.stopped && t.at <= end {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at != live[j].at {
			return live[i].at < live[j].at
		}
		return live[i].seq < live[j].seq
	})
	return live[0]
}

func (c *ManualClock) compact() {
	kept := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	c.timers = kept
}
