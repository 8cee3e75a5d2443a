package primitive

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type empty struct{}

// signal is closed to wake everybody waiting on it.
type signal chan empty

// Local builds process-private primitives. Deadlines are measured on Clock.
type Local struct {
	Clock clockwork.Clock
}

var _ Host = Local{}

// NewLocal returns a Local host on clock, or on the wall clock if clock is nil.
func NewLocal(clock clockwork.Clock) Local {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return Local{Clock: clock}
}

func (h Local) NewMutex() (Mutex, error) {
	return &localMutex{}, nil
}

func (h Local) NewCond(m Mutex) (Cond, error) {
	lm, ok := m.(*localMutex)
	if !ok {
		return nil, fmt.Errorf("local cond on %T: %w", m, ErrUnsupported)
	}
	clock := h.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &localCond{l: lm, clock: clock, wake: make(signal)}, nil
}

type localMutex struct {
	sync.Mutex
}

func (m *localMutex) Destroy() error { return nil }

// localCond is a broadcast-only condition variable. Waiters grab the current
// signal under the mutex, Broadcast closes it and installs a fresh one, so a
// waiter can never miss a wakeup issued after it started waiting.
type localCond struct {
	l     *localMutex
	clock clockwork.Clock
	wake  signal
}

func (c *localCond) Wait() {
	wake := c.wake
	c.l.Unlock()
	<-wake
	c.l.Lock()
}

func (c *localCond) WaitUntil(deadline time.Time) bool {
	if deadline.IsZero() {
		c.Wait()
		return true
	}
	d := deadline.Sub(c.clock.Now())
	if d <= 0 {
		return false
	}

	wake := c.wake
	timer := c.clock.NewTimer(d)
	c.l.Unlock()
	defer c.l.Lock()
	defer timer.Stop()

	select {
	case <-wake:
		return true
	case <-timer.Chan():
		return false
	}
}

func (c *localCond) Broadcast() {
	close(c.wake)
	c.wake = make(signal)
}

func (c *localCond) Destroy() error { return nil }
