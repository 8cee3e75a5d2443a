package rwlock

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/thetarby/rwlock/internal/primitive"
	"github.com/thetarby/rwlock/internal/threadid"
	"github.com/thetarby/rwlock/pkg/metrics"
)

// Option configures New and Attach.
type Option func(*config)

type config struct {
	name      string
	logger    *zap.Logger
	clock     clockwork.Clock
	identity  func() ThreadID
	collector metrics.Collector
	mem       []byte
	host      primitive.Host
}

func newConfig(opts []Option) config {
	cfg := config{
		name:      "rwlock",
		logger:    zap.NewNop(),
		clock:     clockwork.NewRealClock(),
		identity:  threadid.Current,
		collector: &metrics.NoOpCollector{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithName names the lock in logs.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

// WithLogger sets the logger. Lock events are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithClock sets the clock deadlines and wait times are measured on. Only
// private locks use it; shared locks wait in the kernel and always measure on
// the wall clock.
func WithClock(clock clockwork.Clock) Option {
	return func(cfg *config) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// WithIdentity replaces the function that identifies the calling goroutine.
// It must return a value that is stable for the caller's lifetime and unique
// among all users of the lock, in every process sharing it.
func WithIdentity(identity func() ThreadID) Option {
	return func(cfg *config) {
		if identity != nil {
			cfg.identity = identity
		}
	}
}

// WithCollector reports lock events to c.
func WithCollector(c metrics.Collector) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.collector = c
		}
	}
}

// WithSharedMemory places a Shared lock in mem, which must be at least
// SharedSize bytes, 8-byte aligned, and mapped shared (see pkg/shm).
func WithSharedMemory(mem []byte) Option {
	return func(cfg *config) {
		cfg.mem = mem
	}
}
