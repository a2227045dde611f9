package driven

import "context"

// Task is one unit of background work. The context is cancelled when the
// queue shuts down; tasks must check it between stages.
type Task func(ctx context.Context) error

// TaskQueue runs tasks off the caller's goroutine.
// Tasks enqueued with the same key run in enqueue order.
type TaskQueue interface {
	// Enqueue schedules a task. name labels metrics and logs; key selects
	// the ordering lane. Returns domain.ErrQueueClosed after Shutdown.
	Enqueue(name, key string, task Task) error

	// Shutdown stops accepting tasks, cancels in-flight work and waits for
	// the queue to drain or ctx to expire.
	Shutdown(ctx context.Context) error
}
