package metrics

import "time"

// Mode label values.
const (
	ModeRead  = "read"
	ModeWrite = "write"
)

// Collector receives lock events. Implementations must be safe for concurrent
// use and must not call back into the lock: SetPending is called with the
// lock's internal mutex held.
type Collector interface {
	// IncAcquire counts a successful acquisition in mode.
	IncAcquire(mode string)
	// IncContended counts an acquisition that had to wait at least once.
	IncContended(mode string)
	// IncWouldBlock counts a failed try-acquire.
	IncWouldBlock(mode string)
	// IncTimeout counts a deadline-bounded acquire that expired.
	IncTimeout(mode string)
	// IncUnlockError counts a rejected unlock.
	IncUnlockError()
	// ObserveWait records how long a contended acquire waited, whatever its
	// outcome.
	ObserveWait(mode string, d time.Duration)
	// SetPending publishes the number of goroutines waiting in mode.
	SetPending(mode string, n int)
}
