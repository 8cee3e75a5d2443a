// Package rwlock provides a reader/writer lock with writer bias and recursive
// acquisition, built from a mutex and a condition variable, that can be placed
// in memory shared between processes.
//
// The lock can be held by any number of readers or by a single writer.
// Writers are favoured: once a writer waits, new readers wait behind it, so a
// steady stream of readers cannot starve writers. Between writers there is no
// FIFO order; every release to the unlocked state wakes all waiters and each
// re-checks whether it may proceed.
//
// Ownership is per goroutine. The write owner may re-acquire the lock in
// either mode; read holds are anonymous and may be released by any goroutine.
//
// A lock shared between processes is created by one of them and attached by
// the others:
//
//	seg, _ := shm.Create("/dev/shm/segments.lock", rwlock.SharedSize)
//	l, err := rwlock.New(rwlock.Shared, rwlock.WithSharedMemory(seg.Bytes()))
//
//	// in another process
//	l, err := rwlock.Attach(seg.Bytes())
//
// Goroutine identities then include the process id, so write ownership is
// never confused across processes.
package rwlock
