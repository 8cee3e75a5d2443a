package rwlock

import "time"

// Interface is the method set of RWLock, for code that wants to accept a lock
// or a test double.
type Interface interface {
	TryRLock() error
	RLock() error
	RLockUntil(deadline time.Time) error

	TryLock() error
	Lock() error
	LockUntil(deadline time.Time) error

	Unlock() error
}
