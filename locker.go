package rwlock

import "sync"

// Locker returns a sync.Locker whose Lock and Unlock call l.Lock and l.Unlock.
// Errors are run-time errors, as for sync.RWMutex: they panic.
func (l *RWLock) Locker() sync.Locker {
	return (*wlocker)(l)
}

// RLocker returns a sync.Locker whose Lock and Unlock call l.RLock and
// l.Unlock, panicking on error.
func (l *RWLock) RLocker() sync.Locker {
	return (*rlocker)(l)
}

type wlocker RWLock

func (w *wlocker) Lock()   { must((*RWLock)(w).Lock()) }
func (w *wlocker) Unlock() { must((*RWLock)(w).Unlock()) }

type rlocker RWLock

func (r *rlocker) Lock()   { must((*RWLock)(r).RLock()) }
func (r *rlocker) Unlock() { must((*RWLock)(r).Unlock()) }

func must(err error) {
	if err != nil {
		panic(err)
	}
}
