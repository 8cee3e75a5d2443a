package rwlock

import "errors"

var (
	// ErrInvalidArgument reports bad construction parameters, an unsupported
	// sharing policy, or use of a destroyed lock.
	ErrInvalidArgument = errors.New("rwlock: invalid argument")
	// ErrBusy is returned by Destroy while the lock is held.
	ErrBusy = errors.New("rwlock: busy")
	// ErrWouldBlock is returned by TryRLock and TryLock when the lock cannot
	// be taken immediately.
	ErrWouldBlock = errors.New("rwlock: would block")
	// ErrTimedOut is returned when a deadline expires before the lock could
	// be taken.
	ErrTimedOut = errors.New("rwlock: timed out")
	// ErrPermissionDenied is returned by Unlock when nothing is held, or when
	// the lock is write-held by another goroutine.
	ErrPermissionDenied = errors.New("rwlock: permission denied")
)
