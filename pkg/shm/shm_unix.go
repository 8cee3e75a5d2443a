//go:build unix

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Create maps path, creating or growing it to size bytes. Fresh bytes read as
// zero.
func Create(path string, size int) (*Segment, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size < int64(size) {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			return nil, fmt.Errorf("truncate %s: %w", path, err)
		}
	}
	return mmap(path, fd, size)
}

// Open maps the first size bytes of an existing file.
func Open(path string, size int) (*Segment, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size < int64(size) {
		return nil, fmt.Errorf("%s is %d bytes, need %d: %w", path, st.Size, size, ErrTooSmall)
	}
	return mmap(path, fd, size)
}

func mmap(path string, fd, size int) (*Segment, error) {
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Segment{path: path, mem: mem}, nil
}

// Close unmaps the segment. The file is left in place.
func (s *Segment) Close() error {
	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem = nil
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap %s: %w", s.path, err)
	}
	return nil
}
