// internal/lifecycle/coordinator.go
package lifecycle

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/extract/internal/fatal"
)

// Coordinator sequences one blocking task inside the logging lifecycle:
// activate logging, run the task, deactivate logging, stop the pool.
//
// It owns its TaskRunner. The Facility and Stopper are borrowed. The driver
// that created the coordinator disposes of it with Release after the pool
// has stopped.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	runner   TaskRunner
	logs     Facility
	pool     Stopper
	observer func(from, to State)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver registers fn to be called after every state transition.
func WithObserver(fn func(from, to State)) Option {
	return func(c *Coordinator) {
		c.observer = fn
	}
}

// NewCoordinator creates a coordinator in StateCreated.
func NewCoordinator(runner TaskRunner, logs Facility, pool Stopper, opts ...Option) *Coordinator {
	c := &Coordinator{
		state:  StateCreated,
		runner: runner,
		logs:   logs,
		pool:   pool,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run drives the coordinator from Created to Stopped (or Failed) on the
// calling goroutine. Activation and deactivation may finish inline or on
// another goroutine; either way each transition happens once.
//
// The pool is asked to stop exactly once before Run returns, whatever the
// outcome, and never before deactivation has completed. ctx is handed to the
// task only; cancelling it does not cut activation or deactivation short.
// A second call fails without issuing any request.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.transition(StateActivating); err != nil {
		return err
	}

	log.Debug().Msg("Requesting logging activation")
	if err := c.logs.Activate().Wait(); err != nil {
		if terr := c.transition(StateFailed); terr != nil {
			return terr
		}
		return c.stopPool(fatal.Runtime(err, "logging activation failed"))
	}

	return c.onReady(ctx)
}

func (c *Coordinator) onReady(ctx context.Context) error {
	if err := c.transition(StateReady); err != nil {
		return err
	}
	if err := c.transition(StateTaskRunning); err != nil {
		return err
	}

	log.Debug().Msg("Logging ready, running task")
	taskErr := c.runner.Run(ctx)
	if taskErr != nil {
		log.Error().Err(taskErr).Msg("Task failed")
	}

	if err := c.transition(StateDeactivating); err != nil {
		return err
	}
	log.Debug().Msg("Requesting logging shutdown")
	deactivateErr := c.logs.Deactivate().Wait()

	return c.onShutdown(taskErr, deactivateErr)
}

func (c *Coordinator) onShutdown(taskErr, deactivateErr error) error {
	if err := c.transition(StateStopped); err != nil {
		return err
	}

	var err error
	switch {
	case taskErr != nil && deactivateErr != nil:
		err = fatal.Runtime(errors.Join(taskErr, deactivateErr), "task failed")
	case taskErr != nil:
		var fe *fatal.Error
		if errors.As(taskErr, &fe) {
			err = taskErr
		} else {
			err = fatal.Runtime(taskErr, "task failed")
		}
	case deactivateErr != nil:
		err = fatal.Runtime(deactivateErr, "logging shutdown failed")
	}
	return c.stopPool(err)
}

func (c *Coordinator) stopPool(err error) error {
	if stopErr := c.pool.RequestStop(); stopErr != nil {
		return errors.Join(err, fatal.Runtime(stopErr, "pool stop request rejected"))
	}
	return err
}

// Release disposes of the coordinator and its runner. It is only legal once
// Run has finished, and only once.
func (c *Coordinator) Release() error {
	c.mu.Lock()
	from := c.state
	if from == StateReleased {
		c.mu.Unlock()
		return fatal.Runtime(fatal.ErrAlreadyReleased, "coordinator")
	}
	if !from.Terminal() {
		c.mu.Unlock()
		return fatal.Runtime(fatal.ErrInvalidState, "cannot release coordinator in state %s", from)
	}
	runner := c.runner
	c.runner = nil
	c.state = StateReleased
	c.mu.Unlock()

	c.notify(from, StateReleased)

	if closer, ok := runner.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fatal.Runtime(err, "releasing task runner")
		}
	}
	return nil
}

func (c *Coordinator) transition(to State) error {
	c.mu.Lock()
	from := c.state
	if !from.CanTransition(to) {
		c.mu.Unlock()
		return fatal.Runtime(fatal.ErrInvalidState, "illegal transition %s -> %s", from, to)
	}
	c.state = to
	c.mu.Unlock()

	c.notify(from, to)
	return nil
}

func (c *Coordinator) notify(from, to State) {
	log.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Lifecycle transition")
	if c.observer != nil {
		c.observer(from, to)
	}
}
