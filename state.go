package rwlock

import (
	"github.com/thetarby/rwlock/internal/threadid"
)

// ThreadID identifies a goroutine across every process sharing a lock. The
// zero value identifies nobody.
type ThreadID = threadid.ID

// Mode is the way a lock is currently held.
type Mode uint32

const (
	Unlocked Mode = iota
	ReadHeld
	WriteHeld
)

func (m Mode) String() string {
	switch m {
	case Unlocked:
		return "unlocked"
	case ReadHeld:
		return "read"
	case WriteHeld:
		return "write"
	}
	return "invalid"
}

// holdState is the tagged hold of a lock:
//
//	Unlocked          count == 0, no owner
//	ReadHeld(count)   count > 0, no owner; shared by any number of goroutines
//	WriteHeld(owner)  count > 0, owner set; every hold belongs to owner
//
// Values are only produced by the transitions below, which keep those shapes.
// The layout is fixed because shared locks keep it in mapped memory.
type holdState struct {
	mode  Mode
	count uint32
	owner ThreadID
}

// canRead is the read precondition. Readers, the write owner included, wait
// while a writer is pending. Otherwise only another goroutine's write hold
// keeps them out.
func (h holdState) canRead(id ThreadID, pendingWriters uint32) bool {
	if pendingWriters > 0 {
		return false
	}
	return h.mode != WriteHeld || h.owner == id
}

// canWrite is the write precondition: free, or already write-owned by id.
func (h holdState) canWrite(id ThreadID) bool {
	return h.mode == Unlocked || (h.mode == WriteHeld && h.owner == id)
}

// acquire adds one hold for id in m. A read taken by the write owner is
// counted as one more write hold. The matching precondition must hold.
func (h holdState) acquire(m Mode, id ThreadID) holdState {
	switch {
	case h.mode == Unlocked && m == WriteHeld:
		return holdState{mode: WriteHeld, count: 1, owner: id}
	case h.mode == Unlocked:
		return holdState{mode: ReadHeld, count: 1}
	default:
		h.count++
		return h
	}
}

// release drops one hold on behalf of id. Read holds may be released by
// anyone; write holds only by their owner.
func (h holdState) release(id ThreadID) (holdState, error) {
	switch h.mode {
	case Unlocked:
		return h, ErrPermissionDenied
	case WriteHeld:
		if h.owner != id {
			return h, ErrPermissionDenied
		}
	}
	if h.count--; h.count == 0 {
		return holdState{}, nil
	}
	return h, nil
}

// lockState is everything the lock's mutex protects.
type lockState struct {
	hold           holdState
	pendingReaders uint32
	pendingWriters uint32
}

func (s *lockState) can(m Mode, id ThreadID) bool {
	if m == WriteHeld {
		return s.hold.canWrite(id)
	}
	return s.hold.canRead(id, s.pendingWriters)
}

// pending returns the waiter counter of m.
func (s *lockState) pending(m Mode) *uint32 {
	if m == WriteHeld {
		return &s.pendingWriters
	}
	return &s.pendingReaders
}

func (s *lockState) hasWaiters() bool {
	return s.pendingReaders > 0 || s.pendingWriters > 0
}

// State is a point-in-time copy of a lock's state.
type State struct {
	Mode           Mode
	HoldCount      int
	Writer         ThreadID
	PendingReaders int
	PendingWriters int
}

func (s *lockState) snapshot() State {
	return State{
		Mode:           s.hold.mode,
		HoldCount:      int(s.hold.count),
		Writer:         s.hold.owner,
		PendingReaders: int(s.pendingReaders),
		PendingWriters: int(s.pendingWriters),
	}
}
