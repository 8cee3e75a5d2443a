package primitive

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newLocal(t *testing.T, clock clockwork.Clock) (Mutex, Cond) {
	t.Helper()

	h := NewLocal(clock)
	m, err := h.NewMutex()
	require.NoError(t, err)
	c, err := h.NewCond(m)
	require.NoError(t, err)
	return m, c
}

type foreignMutex struct{ localMutex }

func TestLocalNewCondRejectsForeignMutex(t *testing.T) {
	is := assert.New(t)

	_, err := NewLocal(nil).NewCond(&foreignMutex{})
	is.ErrorIs(err, ErrUnsupported)
}

func TestLocalMutexTryLock(t *testing.T) {
	is := assert.New(t)

	m, _ := newLocal(t, nil)
	is.True(m.TryLock())
	is.False(m.TryLock())
	m.Unlock()
	is.True(m.TryLock())
	m.Unlock()
	is.NoError(m.Destroy())
}

func TestLocalCondBroadcastWakesAll(t *testing.T) {
	is := assert.New(t)

	m, c := newLocal(t, nil)

	const waiters = 5
	ready := 0
	released := false
	done := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			m.Lock()
			ready++
			for !released {
				c.Wait()
			}
			m.Unlock()
			done <- struct{}{}
		}()
	}

	for {
		m.Lock()
		n := ready
		m.Unlock()
		if n == waiters {
			break
		}
		time.Sleep(time.Millisecond)
	}

	m.Lock()
	released = true
	c.Broadcast()
	m.Unlock()

	for i := 0; i < waiters; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			is.Fail("waiter was not woken")
			return
		}
	}
}

func TestLocalCondWaitUntilPastDeadline(t *testing.T) {
	is := assert.New(t)

	clock := clockwork.NewFakeClock()
	m, c := newLocal(t, clock)

	m.Lock()
	is.False(c.WaitUntil(clock.Now().Add(-time.Second)))
	is.False(c.WaitUntil(clock.Now()))
	// still held
	is.False(m.TryLock())
	m.Unlock()
}

func TestLocalCondWaitUntilTimesOut(t *testing.T) {
	is := assert.New(t)

	clock := clockwork.NewFakeClock()
	m, c := newLocal(t, clock)

	result := make(chan bool)
	go func() {
		m.Lock()
		woken := c.WaitUntil(clock.Now().Add(time.Second))
		m.Unlock()
		result <- woken
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	is.False(<-result)
}

func TestLocalCondWaitUntilWoken(t *testing.T) {
	is := assert.New(t)

	clock := clockwork.NewFakeClock()
	m, c := newLocal(t, clock)

	result := make(chan bool)
	go func() {
		m.Lock()
		woken := c.WaitUntil(clock.Now().Add(time.Hour))
		m.Unlock()
		result <- woken
	}()

	// The timer is created under the mutex, so once it exists the waiter has
	// grabbed the current signal.
	clock.BlockUntil(1)
	m.Lock()
	c.Broadcast()
	m.Unlock()
	is.True(<-result)
}
