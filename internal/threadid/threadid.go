// Package threadid identifies the calling goroutine in a way that stays
// unique when a lock is shared between processes.
package threadid

import (
	"os"
	"runtime"
	"strconv"
)

// ID names one goroutine of one process. The zero value names nobody.
type ID struct {
	Process   uint32
	Goroutine uint64
}

var pid = uint32(os.Getpid())

// IsZero reports whether id names nobody.
func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) String() string {
	if id.IsZero() {
		return "none"
	}
	return strconv.FormatUint(uint64(id.Process), 10) + "/" + strconv.FormatUint(id.Goroutine, 10)
}

// Current returns the identity of the calling goroutine.
func Current() ID {
	return ID{Process: pid, Goroutine: goroutineID()}
}

// goroutineID reads the id from the first line of the goroutine's own stack
// trace: "goroutine 123 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID returns 0 if buf does not start with a goroutine header.
func parseGID(buf []byte) uint64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var gid uint64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		gid = gid*10 + uint64(c-'0')
	}
	return gid
}
