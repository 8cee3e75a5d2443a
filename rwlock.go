package rwlock

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/thetarby/rwlock/internal"
	"github.com/thetarby/rwlock/internal/primitive"
	"github.com/thetarby/rwlock/pkg/metrics"
)

// RWLock is a writer-biased, recursive reader/writer lock built from one
// mutex and one condition variable. Every method returns its failure as an
// error; none of them panic.
//
// A goroutine holding the write lock may take it again, and may also take the
// read lock; each such acquisition is one more hold on the write lock and
// needs one more Unlock. The owner's read acquisitions still defer to waiting
// writers, so RLock by the owner blocks for good while another writer waits;
// prefer re-taking the write lock. Taking the write lock while holding only the
// read lock is not supported either: TryLock reports ErrWouldBlock and Lock
// deadlocks.
//
// An RWLock must not be copied after first use.
type RWLock struct {
	noCopy internal.NoCopy

	policy Policy
	mu     primitive.Mutex
	cond   primitive.Cond
	state  *lockState
	magic  *uint32 // shared locks only

	identity  func() ThreadID
	clock     clockwork.Clock
	logger    *zap.Logger
	collector metrics.Collector
	destroyed atomic.Bool
}

var _ Interface = (*RWLock)(nil)

// New initialises a lock with the given sharing policy.
//
// A Private lock lives on the Go heap. A Shared lock is placed in the memory
// given with WithSharedMemory and is usable by every process that maps it and
// calls Attach. New fails with ErrInvalidArgument for an unknown policy, a
// missing or unsuitable region, or a host without process-shared primitives.
func New(policy Policy, opts ...Option) (*RWLock, error) {
	cfg := newConfig(opts)

	switch policy {
	case Private:
		host := cfg.host
		if host == nil {
			host = primitive.NewLocal(cfg.clock)
		}
		return build(policy, host, &lockState{}, nil, cfg)

	case Shared:
		if err := checkRegion(cfg.mem); err != nil {
			return nil, err
		}
		host := cfg.host
		if host == nil {
			var err error
			if host, err = newSharedHost(cfg.mem, true); err != nil {
				return nil, fmt.Errorf("%w: shared policy: %w", ErrInvalidArgument, err)
			}
		}
		magic := wordAt(cfg.mem, magicOffset)
		atomic.StoreUint32(magic, 0)
		state := stateAt(cfg.mem)
		*state = lockState{}

		l, err := build(policy, host, state, magic, cfg)
		if err != nil {
			return nil, err
		}
		atomic.StoreUint32(magic, sharedMagic)
		return l, nil
	}

	return nil, fmt.Errorf("%w: unknown policy %v", ErrInvalidArgument, policy)
}

// Attach opens a Shared lock that another process initialised with New in the
// same memory.
func Attach(mem []byte, opts ...Option) (*RWLock, error) {
	if err := checkRegion(mem); err != nil {
		return nil, err
	}
	magic := wordAt(mem, magicOffset)
	if !initialised(magic) {
		return nil, fmt.Errorf("%w: no lock initialised in shared memory", ErrInvalidArgument)
	}

	cfg := newConfig(append(opts, WithSharedMemory(mem)))
	host := cfg.host
	if host == nil {
		var err error
		if host, err = newSharedHost(mem, false); err != nil {
			return nil, fmt.Errorf("%w: shared policy: %w", ErrInvalidArgument, err)
		}
	}
	return build(Shared, host, stateAt(mem), magic, cfg)
}

func build(policy Policy, host primitive.Host, state *lockState, magic *uint32, cfg config) (*RWLock, error) {
	mu, err := host.NewMutex()
	if err != nil {
		return nil, fmt.Errorf("%w: mutex: %w", ErrInvalidArgument, err)
	}
	cond, err := host.NewCond(mu)
	if err != nil {
		_ = mu.Destroy()
		return nil, fmt.Errorf("%w: condition variable: %w", ErrInvalidArgument, err)
	}

	clock := cfg.clock
	if policy == Shared {
		// futex waits run on the wall clock; wait times must too.
		clock = clockwork.NewRealClock()
	}

	return &RWLock{
		policy:    policy,
		mu:        mu,
		cond:      cond,
		state:     state,
		magic:     magic,
		identity:  cfg.identity,
		clock:     clock,
		logger:    cfg.logger.With(zap.String("lock", cfg.name), zap.Stringer("policy", policy)),
		collector: cfg.collector,
	}, nil
}

// Policy returns the sharing policy the lock was created with.
func (l *RWLock) Policy() Policy { return l.policy }

// Destroy releases the lock's primitives. It fails with ErrBusy while any hold
// is outstanding, leaving the lock usable. No other call may be in flight.
func (l *RWLock) Destroy() error {
	if err := l.usable(); err != nil {
		return err
	}

	l.mu.Lock()
	if n := l.state.hold.count; n > 0 {
		l.mu.Unlock()
		l.logger.Debug("destroy of held lock", zap.Uint32("holds", n))
		return ErrBusy
	}
	l.destroyed.Store(true)
	if l.magic != nil {
		atomic.StoreUint32(l.magic, 0)
	}
	l.mu.Unlock()

	return errors.Join(l.cond.Destroy(), l.mu.Destroy())
}

func (l *RWLock) usable() error {
	if l.destroyed.Load() || (l.magic != nil && !initialised(l.magic)) {
		return fmt.Errorf("%w: lock destroyed", ErrInvalidArgument)
	}
	return nil
}

// TryRLock takes the read lock if that is possible without waiting, and
// returns ErrWouldBlock otherwise.
func (l *RWLock) TryRLock() error {
	return l.acquire(ReadHeld, true, time.Time{})
}

// RLock takes the read lock, waiting while it is write-held by another
// goroutine or while any writer is waiting. Because of the latter, a goroutine
// that already holds a read lock can wait here too.
func (l *RWLock) RLock() error {
	return l.acquire(ReadHeld, false, time.Time{})
}

// RLockUntil is RLock bounded by deadline. It returns ErrTimedOut, without
// holding the lock, once deadline passes; a past deadline never waits.
func (l *RWLock) RLockUntil(deadline time.Time) error {
	if deadline.IsZero() {
		return fmt.Errorf("%w: zero deadline", ErrInvalidArgument)
	}
	return l.acquire(ReadHeld, false, deadline)
}

// TryLock takes the write lock if that is possible without waiting, and
// returns ErrWouldBlock otherwise.
func (l *RWLock) TryLock() error {
	return l.acquire(WriteHeld, true, time.Time{})
}

// Lock takes the write lock, waiting while the lock is held by anyone but the
// calling goroutine's own write holds.
func (l *RWLock) Lock() error {
	return l.acquire(WriteHeld, false, time.Time{})
}

// LockUntil is Lock bounded by deadline.
func (l *RWLock) LockUntil(deadline time.Time) error {
	if deadline.IsZero() {
		return fmt.Errorf("%w: zero deadline", ErrInvalidArgument)
	}
	return l.acquire(WriteHeld, false, deadline)
}

// acquire takes one hold in mode m. A zero deadline waits forever.
func (l *RWLock) acquire(m Mode, try bool, deadline time.Time) error {
	if err := l.usable(); err != nil {
		return err
	}
	id := l.identity()
	label := m.String()

	l.mu.Lock()
	if l.state.can(m, id) {
		l.state.hold = l.state.hold.acquire(m, id)
		l.mu.Unlock()
		l.collector.IncAcquire(label)
		return nil
	}
	if try {
		l.mu.Unlock()
		l.collector.IncWouldBlock(label)
		return ErrWouldBlock
	}

	start := l.clock.Now()
	pending := l.state.pending(m)
	*pending++
	l.collector.SetPending(label, int(*pending))

	timedOut := false
	for {
		if !l.cond.WaitUntil(deadline) {
			timedOut = true
			break
		}
		if l.state.can(m, id) {
			break
		}
	}

	*pending--
	l.collector.SetPending(label, int(*pending))
	if timedOut {
		// The last pending writer giving up may admit readers that no
		// release is going to wake.
		if m == WriteHeld && l.state.pendingWriters == 0 && l.state.pendingReaders > 0 {
			l.cond.Broadcast()
		}
		owner := l.state.hold.owner
		l.mu.Unlock()
		l.collector.ObserveWait(label, l.clock.Since(start))
		l.collector.IncTimeout(label)
		l.logger.Debug("lock wait timed out", zap.String("mode", label), zap.Stringer("owner", owner))
		return ErrTimedOut
	}
	l.state.hold = l.state.hold.acquire(m, id)
	l.mu.Unlock()

	waited := l.clock.Since(start)
	l.collector.ObserveWait(label, waited)
	l.collector.IncContended(label)
	l.collector.IncAcquire(label)
	l.logger.Debug("contended lock acquired", zap.String("mode", label), zap.Duration("waited", waited))
	return nil
}

// Unlock releases one hold. A read hold may be released by any goroutine; a
// write hold only by its owner. When the last hold goes, every waiter is woken
// to re-check whether it may proceed.
func (l *RWLock) Unlock() error {
	if err := l.usable(); err != nil {
		return err
	}

	l.mu.Lock()
	var id ThreadID
	if l.state.hold.mode == WriteHeld {
		id = l.identity()
	}
	prev := l.state.hold
	next, err := prev.release(id)
	if err != nil {
		l.mu.Unlock()
		l.collector.IncUnlockError()
		l.logger.Debug("unlock rejected",
			zap.Stringer("held", prev.mode),
			zap.Stringer("owner", prev.owner),
			zap.Stringer("caller", id),
		)
		return err
	}
	l.state.hold = next
	if next.mode == Unlocked && l.state.hasWaiters() {
		l.cond.Broadcast()
	}
	l.mu.Unlock()
	return nil
}

// Snapshot returns the current state of the lock.
func (l *RWLock) Snapshot() (State, error) {
	if err := l.usable(); err != nil {
		return State{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.snapshot(), nil
}
