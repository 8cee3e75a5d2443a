// Package primitive defines the mutex and condition variable a reader/writer
// lock is built from, and the in-process implementation of both.
package primitive

import (
	"errors"
	"time"
)

// ErrUnsupported is returned by a Host that cannot build a primitive.
var ErrUnsupported = errors.New("primitive: unsupported")

// Mutex is an exclusive, non-reentrant lock.
type Mutex interface {
	Lock()
	Unlock()
	TryLock() bool
	Destroy() error
}

// Cond is a condition variable bound to one Mutex. Every method must be called
// with that Mutex held.
type Cond interface {
	// Wait releases the mutex, blocks until woken and reacquires it.
	Wait()
	// WaitUntil is Wait bounded by deadline. It returns false if the deadline
	// passed first. A deadline already in the past returns false at once,
	// without releasing the mutex. A zero deadline waits forever.
	WaitUntil(deadline time.Time) bool
	// Broadcast wakes every waiter.
	Broadcast()
	Destroy() error
}

// Host builds the primitives for one lock.
type Host interface {
	NewMutex() (Mutex, error)
	NewCond(m Mutex) (Cond, error)
}
