package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/thetarby/rwlock"
	"github.com/thetarby/rwlock/pkg/metrics"
	"github.com/thetarby/rwlock/pkg/shm"
)

// errInitialised is returned by init for a file that already holds a lock.
var errInitialised = errors.New("already holds a lock")

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init PATH",
		Short: "Create a file holding a new unlocked shared lock",
		Long: "Create a file holding a new unlocked shared lock. A file that already " +
			"holds a lock is left alone unless --force is given; reinitialising " +
			"a lock that other processes use breaks it for them.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seg, err := shm.Create(args[0], rwlock.SharedSize)
			if err != nil {
				return err
			}
			defer seg.Close()

			if !force {
				if _, err := rwlock.Attach(seg.Bytes()); err == nil {
					return fmt.Errorf("%s %w, use --force to reinitialise", seg.Path(), errInitialised)
				}
			}
			if _, err := rwlock.New(rwlock.Shared, a.lockOptions(seg)...); err != nil {
				return err
			}
			a.logger.Info("lock initialised", zap.String("path", seg.Path()), zap.Bool("forced", force))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reinitialise a file that already holds a lock")
	return cmd
}

// statView is the YAML form of a lock snapshot.
type statView struct {
	Path           string `yaml:"path"`
	Mode           string `yaml:"mode"`
	Holds          int    `yaml:"holds"`
	Writer         string `yaml:"writer,omitempty"`
	PendingReaders int    `yaml:"pending_readers"`
	PendingWriters int    `yaml:"pending_writers"`
}

func newStatView(path string, s rwlock.State) statView {
	v := statView{
		Path:           path,
		Mode:           s.Mode.String(),
		Holds:          s.HoldCount,
		PendingReaders: s.PendingReaders,
		PendingWriters: s.PendingWriters,
	}
	if !s.Writer.IsZero() {
		v.Writer = s.Writer.String()
	}
	return v
}

func writeStat(w io.Writer, v statView) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func newStatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat PATH",
		Short: "Print the state of a shared lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seg, l, err := a.attach(args[0], nil)
			if err != nil {
				return err
			}
			defer seg.Close()

			s, err := l.Snapshot()
			if err != nil {
				return err
			}
			return writeStat(cmd.OutOrStdout(), newStatView(seg.Path(), s))
		},
	}
}

func newDestroyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy PATH",
		Short: "Destroy an unheld shared lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seg, l, err := a.attach(args[0], nil)
			if err != nil {
				return err
			}
			defer seg.Close()

			if err := l.Destroy(); err != nil {
				if errors.Is(err, rwlock.ErrBusy) {
					return fmt.Errorf("%s is held: %w", seg.Path(), err)
				}
				return err
			}
			a.logger.Info("lock destroyed", zap.String("path", seg.Path()))
			return nil
		},
	}
}

type holdFlags struct {
	mode    string
	hold    time.Duration
	timeout time.Duration
}

func newHoldCmd(a *app) *cobra.Command {
	f := &holdFlags{}
	cmd := &cobra.Command{
		Use:   "hold PATH",
		Short: "Acquire a shared lock and keep it for a while",
		Long: "Acquire a shared lock and keep it until --for elapses or the " +
			"process is interrupted. With --for 0 the lock is kept until interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.hold(ctx, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.mode, "mode", metrics.ModeWrite, "read or write")
	flags.DurationVar(&f.hold, "for", 0, "how long to keep the lock")
	flags.DurationVar(&f.timeout, "timeout", 0, "give up acquiring after this long; 0 waits forever")
	return cmd
}

func (a *app) hold(ctx context.Context, path string, f *holdFlags) error {
	var acquire func(*rwlock.RWLock, time.Time) error
	switch f.mode {
	case metrics.ModeRead:
		acquire = acquireRead
	case metrics.ModeWrite:
		acquire = acquireWrite
	default:
		return fmt.Errorf("unknown mode %q, want read or write", f.mode)
	}

	collector := metrics.NewPrometheusCollector(a.cfg.Name)
	seg, l, err := a.attach(path, collector)
	if err != nil {
		return err
	}
	defer seg.Close()

	if a.cfg.MetricsAddr != "" {
		srv, err := a.serveMetrics(collector)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	var deadline time.Time
	if f.timeout > 0 {
		deadline = time.Now().Add(f.timeout)
	}
	start := time.Now()
	if err := acquireSliced(ctx, l, acquire, deadline); err != nil {
		return fmt.Errorf("acquire %s lock: %w", f.mode, err)
	}
	a.logger.Info("lock acquired",
		zap.String("path", path),
		zap.String("mode", f.mode),
		zap.Duration("waited", time.Since(start)),
	)

	var expired <-chan time.Time
	if f.hold > 0 {
		t := time.NewTimer(f.hold)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-expired:
	case <-ctx.Done():
		a.logger.Info("interrupted")
	}

	if err := l.Unlock(); err != nil {
		return fmt.Errorf("release %s lock: %w", f.mode, err)
	}
	a.logger.Info("lock released", zap.String("path", path), zap.Duration("held", time.Since(start)))
	return nil
}

// acquirePoll bounds each wait of acquireSliced.
const acquirePoll = 100 * time.Millisecond

// acquireSliced waits for the lock in slices of at most acquirePoll so that
// ctx is honoured while waiting. A zero deadline waits until ctx is done.
func acquireSliced(ctx context.Context, l *rwlock.RWLock, acquire func(*rwlock.RWLock, time.Time) error, deadline time.Time) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		until := time.Now().Add(acquirePoll)
		if !deadline.IsZero() && deadline.Before(until) {
			until = deadline
		}
		err := acquire(l, until)
		if !errors.Is(err, rwlock.ErrTimedOut) {
			return err
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return err
		}
	}
}

func acquireWrite(l *rwlock.RWLock, deadline time.Time) error {
	return l.LockUntil(deadline)
}

func acquireRead(l *rwlock.RWLock, deadline time.Time) error {
	return l.RLockUntil(deadline)
}

func (a *app) serveMetrics(collector prometheus.Collector) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", a.cfg.MetricsAddr))
	return srv, nil
}

func (a *app) lockOptions(seg *shm.Segment) []rwlock.Option {
	return []rwlock.Option{
		rwlock.WithName(a.cfg.Name),
		rwlock.WithLogger(a.logger),
		rwlock.WithSharedMemory(seg.Bytes()),
	}
}

// attach maps path and opens the lock in it. The caller closes the segment.
func (a *app) attach(path string, collector metrics.Collector) (*shm.Segment, *rwlock.RWLock, error) {
	seg, err := shm.Open(path, rwlock.SharedSize)
	if err != nil {
		return nil, nil, err
	}

	opts := []rwlock.Option{
		rwlock.WithName(a.cfg.Name),
		rwlock.WithLogger(a.logger),
	}
	if collector != nil {
		opts = append(opts, rwlock.WithCollector(collector))
	}
	l, err := rwlock.Attach(seg.Bytes(), opts...)
	if err != nil {
		seg.Close()
		return nil, nil, err
	}
	return seg, l, nil
}
