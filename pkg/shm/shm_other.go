//go:build !unix

package shm

func Create(path string, size int) (*Segment, error) { return nil, ErrUnsupported }

func Open(path string, size int) (*Segment, error) { return nil, ErrUnsupported }

func (s *Segment) Close() error { return nil }
