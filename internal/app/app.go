// Package app wires the extraction task into the logging lifecycle and
// drives it on a single-worker pool.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/law-makers/extract/internal/config"
	"github.com/law-makers/extract/internal/extract"
	"github.com/law-makers/extract/internal/fatal"
	"github.com/law-makers/extract/internal/lifecycle"
	"github.com/law-makers/extract/internal/logging"
	"github.com/law-makers/extract/internal/runctx"
	"github.com/law-makers/extract/internal/worker"
)

// Dumper is the blocking extraction operation the application hosts.
type Dumper interface {
	Dump(ctx context.Context, cfg *config.Config) error
}

// DumperFunc adapts a function to Dumper.
type DumperFunc func(ctx context.Context, cfg *config.Config) error

// Dump calls f.
func (f DumperFunc) Dump(ctx context.Context, cfg *config.Config) error {
	return f(ctx, cfg)
}

// Application holds the validated configuration and the collaborators of
// one extraction run.
type Application struct {
	Config  *config.Config
	Logging lifecycle.Facility
	Dumper  Dumper

	// OnFault handles a panic recovered on the worker. It must not return
	// normally in production; the default writes one line and exits.
	OnFault func(recovered interface{})

	// Observer is passed to the coordinator, mainly for tests.
	Observer func(from, to lifecycle.State)

	mu          sync.Mutex
	coordinator *lifecycle.Coordinator
}

// Option configures an Application.
type Option func(*Application)

// WithDumper replaces the extraction engine.
func WithDumper(d Dumper) Option {
	return func(a *Application) { a.Dumper = d }
}

// WithLogging replaces the logging facility.
func WithLogging(f lifecycle.Facility) Option {
	return func(a *Application) { a.Logging = f }
}

// WithFaultHandler replaces the crash escalation.
func WithFaultHandler(fn func(recovered interface{})) Option {
	return func(a *Application) { a.OnFault = fn }
}

// WithObserver observes coordinator transitions.
func WithObserver(fn func(from, to lifecycle.State)) Option {
	return func(a *Application) { a.Observer = fn }
}

// New creates an Application for cfg. The logging facility is built from
// cfg alone.
func New(cfg *config.Config, progress io.Writer, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	engine := extract.New(extract.Options{Progress: progress})
	a := &Application{
		Config: cfg,
		Logging: logging.NewController(logging.Config{
			Path:  cfg.LogFile,
			Level: cfg.LogLevel,
			JSON:  cfg.JSONLog,
		}),
		Dumper: DumperFunc(func(ctx context.Context, cfg *config.Config) error {
			_, err := engine.Dump(ctx, cfg)
			return err
		}),
		OnFault: func(recovered interface{}) {
			fatal.Crash(os.Stderr, recovered)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run hosts the extraction on a one-worker pool and blocks until the pool
// has been stopped by the coordinator. The coordinator is disposed of here,
// after the pool reports it has stopped.
func (a *Application) Run(ctx context.Context) error {
	ctx = runctx.WithRun(ctx)

	var runErr error
	var pool *worker.Pool
	pool = worker.New(1, worker.WithFaultHandler(func(id int, recovered interface{}) {
		a.OnFault(recovered)
		// Only reached when OnFault does not exit. The run is abandoned.
		runErr = fatal.Runtime(fmt.Errorf("%w: %v", fatal.ErrInternalCrash, recovered), "worker %d crashed", id)
		_ = pool.RequestStop()
	}))

	starter := worker.MessageFunc(func(ctx context.Context) {
		runner := lifecycle.TaskFunc(func(ctx context.Context) error {
			return a.Dumper.Dump(ctx, a.Config)
		})

		var opts []lifecycle.Option
		if a.Observer != nil {
			opts = append(opts, lifecycle.WithObserver(a.Observer))
		}
		c := lifecycle.NewCoordinator(runner, a.Logging, pool, opts...)

		a.mu.Lock()
		a.coordinator = c
		a.mu.Unlock()

		runErr = c.Run(ctx)
	})

	if err := pool.Run(ctx, starter); err != nil {
		return fatal.Runtime(err, "failed to submit startup message")
	}

	// The pool has stopped, so runErr is no longer written concurrently.
	if err := a.release(); err != nil && runErr == nil {
		runErr = err
	}

	logger := runctx.Logger(ctx)
	logger.Debug().
		Dur("elapsed", runctx.Elapsed(ctx)).
		Msg("Extraction run finished")
	return runErr
}

func (a *Application) release() error {
	a.mu.Lock()
	c := a.coordinator
	a.coordinator = nil
	a.mu.Unlock()

	if c == nil {
		return fatal.Runtime(fatal.ErrInvalidState, "pool stopped without a coordinator")
	}
	return c.Release()
}
