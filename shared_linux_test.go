//go:build linux

package rwlock

import (
	"path/filepath"
	"testing"
	"time"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetarby/rwlock/pkg/shm"
)

// alignedMemory returns SharedSize bytes on an 8-byte boundary.
func alignedMemory() []byte {
	words := make([]uint64, SharedSize/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), SharedSize)
}

// mappedPair maps one file twice, as two processes would.
func mappedPair(t *testing.T) (*shm.Segment, *shm.Segment) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lock")
	a, err := shm.Create(path, SharedSize)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	b, err := shm.Open(path, SharedSize)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return a, b
}

func TestSharedNewAndAttach(t *testing.T) {
	is := assert.New(t)

	a, b := mappedPair(t)

	_, err := Attach(b.Bytes())
	is.ErrorIs(err, ErrInvalidArgument, "nothing initialised yet")

	first, err := New(Shared, WithSharedMemory(a.Bytes()), fixedIdentity(100, 1))
	require.NoError(t, err)
	is.Equal(Shared, first.Policy())

	second, err := Attach(b.Bytes(), fixedIdentity(200, 1))
	require.NoError(t, err)
	is.Equal(Shared, second.Policy())

	require.NoError(t, first.Lock())
	is.Empty(cmp.Diff(State{Mode: WriteHeld, HoldCount: 1, Writer: ThreadID{Process: 100, Goroutine: 1}}, snapshot(t, second)))

	is.ErrorIs(second.TryLock(), ErrWouldBlock, "same goroutine number, other process")
	is.ErrorIs(second.TryRLock(), ErrWouldBlock)
	is.ErrorIs(second.Unlock(), ErrPermissionDenied)

	require.NoError(t, first.Unlock())
	is.NoError(second.TryRLock())
	is.Empty(cmp.Diff(State{Mode: ReadHeld, HoldCount: 1}, snapshot(t, first)))

	is.ErrorIs(first.Destroy(), ErrBusy)
	is.NoError(first.Unlock(), "read holds are anonymous across processes too")
	is.NoError(second.Destroy())

	is.ErrorIs(first.RLock(), ErrInvalidArgument, "destroyed by the other process")
	_, err = Attach(a.Bytes())
	is.ErrorIs(err, ErrInvalidArgument)
}

func TestSharedBlockingAcrossMappings(t *testing.T) {
	is := assert.New(t)

	a, b := mappedPair(t)
	first, err := New(Shared, WithSharedMemory(a.Bytes()))
	require.NoError(t, err)
	second, err := Attach(b.Bytes())
	require.NoError(t, err)

	require.NoError(t, first.RLock())
	res := async(func() error {
		if err := second.Lock(); err != nil {
			return err
		}
		return second.Unlock()
	})
	waitPending(t, first, 0, 1)
	is.ErrorIs(other(first.TryRLock), ErrWouldBlock, "writer bias holds across processes")

	is.NoError(first.Unlock())
	is.NoError(<-res)
	is.Empty(cmp.Diff(State{Mode: Unlocked}, snapshot(t, second)))
	is.NoError(first.Destroy())
}

func TestSharedDeadline(t *testing.T) {
	is := assert.New(t)

	l, err := New(Shared, WithSharedMemory(alignedMemory()))
	require.NoError(t, err)
	require.NoError(t, l.Lock())

	start := time.Now()
	is.ErrorIs(other(func() error { return l.RLockUntil(start.Add(30 * time.Millisecond)) }), ErrTimedOut)
	is.GreaterOrEqual(time.Since(start), 25*time.Millisecond)
	is.ErrorIs(other(func() error { return l.LockUntil(time.Now().Add(-time.Second)) }), ErrTimedOut)
	s := snapshot(t, l)
	is.Equal(WriteHeld, s.Mode)
	is.Equal(1, s.HoldCount)
	is.Zero(s.PendingReaders + s.PendingWriters)

	is.NoError(l.Unlock())
	is.NoError(l.Destroy())
}

func TestSharedIgnoresInjectedClock(t *testing.T) {
	l, err := New(Shared, WithSharedMemory(alignedMemory()), WithClock(clockwork.NewFakeClock()))
	require.NoError(t, err)

	_, fake := l.clock.(clockwork.FakeClock)
	assert.False(t, fake, "wait times of shared locks are measured on the wall clock")
	assert.NoError(t, l.Destroy())
}

func TestSharedHammer(t *testing.T) {
	is := assert.New(t)

	n := 200
	if testing.Short() {
		n = 5
	}

	a, b := mappedPair(t)
	first, err := New(Shared, WithSharedMemory(a.Bytes()))
	require.NoError(t, err)
	second, err := Attach(b.Bytes())
	require.NoError(t, err)

	var activity int32
	res := async(func() error { return writer(second, n, &activity) })
	is.NoError(reader(first, n, &activity))
	is.NoError(writer(first, n, &activity))
	is.NoError(<-res)

	is.Empty(cmp.Diff(State{Mode: Unlocked}, snapshot(t, first)))
	is.NoError(first.Destroy())
}
