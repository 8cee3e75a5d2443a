// Package shm maps a file into memory so that several processes can share it.
package shm

import "errors"

// ErrUnsupported is returned on hosts without shared file mappings.
var ErrUnsupported = errors.New("shm: shared mappings are not supported on this host")

// ErrTooSmall is returned when an existing file is shorter than requested.
var ErrTooSmall = errors.New("shm: segment too small")

// Segment is a shared mapping of a file.
type Segment struct {
	path string
	mem  []byte
}

// Path returns the backing file.
func (s *Segment) Path() string { return s.path }

// Bytes returns the mapped memory. It is valid until Close.
func (s *Segment) Bytes() []byte { return s.mem }
