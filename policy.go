package rwlock

import "strconv"

// Policy says where a lock may be used from. It is fixed at construction.
type Policy int

const (
	// Private locks are used by the goroutines of one process.
	Private Policy = iota
	// Shared locks live in memory mapped into several processes. They need a
	// host with a process-shared mutex (linux futexes); elsewhere New rejects
	// them with ErrInvalidArgument.
	Shared
)

func (p Policy) String() string {
	switch p {
	case Private:
		return "private"
	case Shared:
		return "shared"
	}
	return "Policy(" + strconv.Itoa(int(p)) + ")"
}

