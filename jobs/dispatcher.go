package jobs

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueFull is returned when the dispatcher queue cannot accept more work.
var ErrQueueFull = errors.New("job queue is full")

// errDispatcherStopped is returned on enqueue after Stop.
var errDispatcherStopped = errors.New("dispatcher stopped")

// Dispatcher runs job ids on a fixed pool of workers. It decouples the
// lifetime of background work from the request that submitted it: workers run
// on the dispatcher's own context, not the submitting request's.
type Dispatcher struct {
	run     func(ctx context.Context, id string)
	queue   chan string
	workers int

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewDispatcher creates a dispatcher with the given worker count and queue
// depth. run is invoked once per enqueued id.
func NewDispatcher(workers, queueSize int, run func(ctx context.Context, id string)) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		run:     run,
		queue:   make(chan string, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. The workers inherit a context detached from
// ctx's cancellation: submitted work is never aborted, only prevented from
// starting once Stop drains the queue.
func (d *Dispatcher) Start(ctx context.Context) error {
	workCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for id := range d.queue {
				d.run(workCtx, id)
			}
		}()
	}
	return nil
}

// Enqueue hands a job id to the pool. It never blocks: a full queue is
// reported to the caller instead of stalling the submitting request.
func (d *Dispatcher) Enqueue(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return errDispatcherStopped
	}
	select {
	case d.queue <- id:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight work to finish.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Give up waiting; running calls keep their own context.
	}
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}
