package lifecycle

import "sync"

// Completion is a single-shot signal for an asynchronous step. A facility
// that finishes before returning hands back an already completed value;
// otherwise it completes it later from any goroutine. Callers wait the same
// way in both cases.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewCompletion returns a pending Completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Completed returns a Completion that has already finished with err.
func Completed(err error) *Completion {
	c := NewCompletion()
	c.Complete(err)
	return c
}

// Complete finishes the step. Only the first call has any effect; it
// returns false for every later call.
func (c *Completion) Complete(err error) bool {
	fired := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		fired = true
	})
	return fired
}

// Done is closed once the step has finished.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the result of the step. It is nil until Done is closed.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the step finishes. There is no way to abandon a step
// that is still in flight: it may own resources only it can release.
func (c *Completion) Wait() error {
	<-c.done
	return c.err
}
