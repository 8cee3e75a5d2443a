package rwlock

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// SharedSize is the number of bytes a Shared lock occupies in mapped memory.
const SharedSize = 64

// Layout of a Shared lock:
//
//	[0:4]   magic, set once the lock is initialised, cleared by Destroy
//	[4:8]   mutex word
//	[8:12]  condition variable sequence word
//	[16:48] lockState
const (
	magicOffset = 0
	mutexOffset = 4
	condOffset  = 8
	stateOffset = 16

	sharedMagic = 0x72776c6b // "rwlk"
)

// lockState must fit behind stateOffset.
var _ [SharedSize - stateOffset - unsafe.Sizeof(lockState{})]byte

func checkRegion(mem []byte) error {
	if len(mem) < SharedSize {
		return fmt.Errorf("shared memory is %d bytes, need %d: %w", len(mem), SharedSize, ErrInvalidArgument)
	}
	if uintptr(unsafe.Pointer(&mem[0]))%8 != 0 {
		return fmt.Errorf("shared memory is not 8-byte aligned: %w", ErrInvalidArgument)
	}
	return nil
}

func wordAt(mem []byte, off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&mem[off]))
}

func stateAt(mem []byte) *lockState {
	return (*lockState)(unsafe.Pointer(&mem[stateOffset]))
}

func initialised(magic *uint32) bool {
	return atomic.LoadUint32(magic) == sharedMagic
}
