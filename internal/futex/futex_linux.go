//go:build linux

// Package futex implements a mutex and a condition variable on 32-bit words
// that may live in memory mapped into several processes.
package futex

import (
	"math"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Shared (non-private) futex operations; the words are addressed by their
// physical page so that every process mapping them sees the same queue.
const (
	opWait = 0
	opWake = 1
)

// wait sleeps while *addr == val, for at most timeout when it is positive.
func wait(addr *uint32, val uint32, timeout time.Duration) syscall.Errno {
	var ts *unix.Timespec
	if timeout > 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(opWait),
		uintptr(val),
		uintptr(unsafe.Pointer(ts)),
		0, 0,
	)
	return errno
}

func wake(addr *uint32, n int) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(opWake),
		uintptr(n),
		0, 0, 0,
	)
}

// Mutex states.
const (
	unlocked  = 0
	locked    = 1
	contended = 2
)

// Mutex is a three-state futex lock.
type Mutex struct {
	word *uint32
}

// NewMutex uses word as the lock state. init resets it to unlocked; other
// processes attach with init false.
func NewMutex(word *uint32, init bool) *Mutex {
	if init {
		atomic.StoreUint32(word, unlocked)
	}
	return &Mutex{word: word}
}

func (m *Mutex) Lock() {
	if atomic.CompareAndSwapUint32(m.word, unlocked, locked) {
		return
	}
	for atomic.SwapUint32(m.word, contended) != unlocked {
		wait(m.word, contended, 0)
	}
}

func (m *Mutex) TryLock() bool {
	return atomic.CompareAndSwapUint32(m.word, unlocked, locked)
}

func (m *Mutex) Unlock() {
	switch atomic.SwapUint32(m.word, unlocked) {
	case unlocked:
		panic("futex: unlock of unlocked mutex")
	case contended:
		wake(m.word, 1)
	}
}

func (m *Mutex) Destroy() error { return nil }

// Cond is a sequence-counter condition variable. Waiters sleep on the value
// they read under the mutex; Broadcast bumps it, so a wakeup issued after the
// read makes the sleep return immediately.
type Cond struct {
	m   *Mutex
	seq *uint32
	now func() time.Time
}

// NewCond binds the sequence word seq to m.
func NewCond(m *Mutex, seq *uint32, init bool) *Cond {
	if init {
		atomic.StoreUint32(seq, 0)
	}
	return &Cond{m: m, seq: seq, now: time.Now}
}

func (c *Cond) Wait() {
	seq := atomic.LoadUint32(c.seq)
	c.m.Unlock()
	wait(c.seq, seq, 0)
	c.m.Lock()
}

func (c *Cond) WaitUntil(deadline time.Time) bool {
	if deadline.IsZero() {
		c.Wait()
		return true
	}
	d := deadline.Sub(c.now())
	if d <= 0 {
		return false
	}

	seq := atomic.LoadUint32(c.seq)
	c.m.Unlock()
	defer c.m.Lock()
	for {
		switch wait(c.seq, seq, d) {
		case unix.ETIMEDOUT:
			return false
		case unix.EINTR:
			// Signal delivery is not a wakeup; sleep out the rest unless a
			// broadcast slipped in meanwhile.
			if atomic.LoadUint32(c.seq) != seq {
				return true
			}
			if d = deadline.Sub(c.now()); d <= 0 {
				return false
			}
		default:
			return true
		}
	}
}

func (c *Cond) Broadcast() {
	atomic.AddUint32(c.seq, 1)
	wake(c.seq, math.MaxInt32)
}

func (c *Cond) Destroy() error { return nil }
