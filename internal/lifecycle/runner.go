package lifecycle

import "context"

// TaskRunner wraps the one blocking operation a coordinator hosts. Run is
// called exactly once. If the runner also implements io.Closer, Close is
// called when the coordinator is released.
type TaskRunner interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a plain function to TaskRunner.
type TaskFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f TaskFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Facility is the logging subsystem as the coordinator sees it. Each call
// starts the step and returns its completion, which may already be done.
type Facility interface {
	Activate() *Completion
	Deactivate() *Completion
}

// Stopper is the worker pool as the coordinator sees it.
type Stopper interface {
	RequestStop() error
}
