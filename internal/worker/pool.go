// internal/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrStopped is returned when submitting to a pool that is stopping.
	ErrStopped = errors.New("worker pool stopped")
	// ErrStopRequested is returned for every stop request after the first.
	ErrStopRequested = errors.New("worker pool stop already requested")
)

// Message is a unit of work dispatched on a pool worker.
type Message interface {
	OnDispatch(ctx context.Context)
}

// MessageFunc adapts a function to Message.
type MessageFunc func(ctx context.Context)

// OnDispatch calls f(ctx).
func (f MessageFunc) OnDispatch(ctx context.Context) {
	f(ctx)
}

// FaultHandler receives the value recovered from a panicking message.
type FaultHandler func(workerID int, recovered interface{})

// Pool runs messages on a fixed set of worker goroutines until a stop is
// requested. Stopping is one-way: queued messages are drained, then the
// workers exit and AwaitStop returns.
type Pool struct {
	size    int
	queue   chan Message
	onFault FaultHandler

	mu            sync.Mutex
	stopRequested bool
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	startOnce     sync.Once
	wg            sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithFaultHandler sets the handler for panics inside messages. Without
// one, a panic is re-raised on the worker goroutine.
func WithFaultHandler(fn FaultHandler) Option {
	return func(p *Pool) {
		p.onFault = fn
	}
}

// WithQueueSize sets the number of messages that can wait for a worker.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queue = make(chan Message, n)
		}
	}
}

// New creates a pool with size workers. Workers start on Start or Run.
func New(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		size:      size,
		queue:     make(chan Message, 16),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Start launches the workers. Later calls do nothing.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for w := 1; w <= p.size; w++ {
			p.wg.Add(1)
			go p.worker(ctx, w)
		}

		go func() {
			p.wg.Wait()
			close(p.stoppedCh)
			log.Debug().Int("workers", p.size).Msg("Worker pool stopped")
		}()
	})
}

// Run starts the workers, submits initial and blocks until the pool has
// been stopped by one of its messages.
func (p *Pool) Run(ctx context.Context, initial Message) error {
	p.Start(ctx)
	if err := p.Submit(initial); err != nil {
		return err
	}
	p.AwaitStop()
	return nil
}

// Submit queues msg for a worker.
func (p *Pool) Submit(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopRequested {
		return ErrStopped
	}
	select {
	case p.queue <- msg:
		return nil
	default:
	}
	return errors.New("worker pool queue full")
}

// RequestStop asks the workers to exit once the queue is drained. Only the
// first request is accepted.
func (p *Pool) RequestStop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopRequested {
		return ErrStopRequested
	}
	p.stopRequested = true
	close(p.stopCh)
	log.Debug().Msg("Worker pool stop requested")
	return nil
}

// AwaitStop blocks until every worker has exited.
func (p *Pool) AwaitStop() {
	<-p.stoppedCh
}

// Stopped is closed once every worker has exited.
func (p *Pool) Stopped() <-chan struct{} {
	return p.stoppedCh
}

// worker processes messages until a stop is requested and the queue is empty
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	// Memory faults (for example on a mapped block device) become panics
	// and go to the fault handler.
	debug.SetPanicOnFault(true)

	log.Debug().Int("worker_id", id).Msg("Worker started")

	for {
		select {
		case msg := <-p.queue:
			p.dispatch(ctx, id, msg)
		case <-p.stopCh:
			for {
				select {
				case msg := <-p.queue:
					p.dispatch(ctx, id, msg)
				default:
					log.Debug().Int("worker_id", id).Msg("Worker finished")
					return
				}
			}
		}
	}
}

func (p *Pool) dispatch(ctx context.Context, id int, msg Message) {
	if p.onFault != nil {
		defer func() {
			if r := recover(); r != nil {
				p.onFault(id, r)
			}
		}()
	}
	msg.OnDispatch(ctx)
}
