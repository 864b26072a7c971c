package playback

import (
	"errors"
	"sync"
	"time"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock fires callbacks only when Advance is called. Timers due at the
// same instant fire in scheduling order.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*fakeTimer
	fail    bool
}

var errNoTimers = errors.New("timers unavailable")

func (c *fakeClock) AfterFunc(d time.Duration, f func()) (Timer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, errNoTimers
	}
	c.seq++
	t := &fakeTimer{clock: c, at: c.now + d, seq: c.seq, fn: f}
	c.pending = append(c.pending, t)
	return t, nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.pending {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.fn()
	}
}

func (c *fakeClock) setFail(fail bool) {
	c.mu.Lock()
	c.fail = fail
	c.mu.Unlock()
}
