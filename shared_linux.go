//go:build linux

package rwlock

import (
	"fmt"

	"github.com/thetarby/rwlock/internal/futex"
	"github.com/thetarby/rwlock/internal/primitive"
)

// sharedHost builds futex primitives on the words of a shared region. With
// init false it attaches to words another process already initialised.
type sharedHost struct {
	mem  []byte
	init bool
}

func newSharedHost(mem []byte, init bool) (primitive.Host, error) {
	return sharedHost{mem: mem, init: init}, nil
}

func (h sharedHost) NewMutex() (primitive.Mutex, error) {
	return futex.NewMutex(wordAt(h.mem, mutexOffset), h.init), nil
}

func (h sharedHost) NewCond(m primitive.Mutex) (primitive.Cond, error) {
	fm, ok := m.(*futex.Mutex)
	if !ok {
		return nil, fmt.Errorf("shared cond on %T: %w", m, primitive.ErrUnsupported)
	}
	return futex.NewCond(fm, wordAt(h.mem, condOffset), h.init), nil
}
