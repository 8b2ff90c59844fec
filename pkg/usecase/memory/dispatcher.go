package memory

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/atelierhq/decormem/pkg/utils/logging"
)

// dispatcher runs learning tasks on a fixed worker pool with a bounded
// queue. Dispatch never blocks the caller: when the queue is full the
// task is dropped with a warning.
type dispatcher struct {
	queue chan func(context.Context)
	g     *errgroup.Group

	mu     sync.Mutex
	closed bool
}

func newDispatcher(workers, queueDepth int) *dispatcher {
	d := &dispatcher{
		queue: make(chan func(context.Context), queueDepth),
		g:     &errgroup.Group{},
	}

	// Tasks run detached from the request context so that a returned
	// response never cancels learning already in flight.
	base := logging.With(context.Background(), logging.Default())
	for i := 0; i < workers; i++ {
		d.g.Go(func() error {
			for task := range d.queue {
				task(base)
			}
			return nil
		})
	}
	return d
}

// Dispatch enqueues a task without blocking. Returns false when the task
// was dropped because the queue is full or the dispatcher is closed.
func (d *dispatcher) Dispatch(ctx context.Context, task func(context.Context)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		logging.From(ctx).Warn("learning task dropped: dispatcher closed")
		return false
	}

	select {
	case d.queue <- task:
		return true
	default:
		logging.From(ctx).Warn("learning task dropped: queue full",
			"depth", cap(d.queue))
		return false
	}
}

// Close stops accepting tasks and waits for queued work to finish.
func (d *dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	_ = d.g.Wait()
}
