package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Background implements the interface.
var _ driven.TaskQueue = (*Background)(nil)

// flushInterval is how often Flush polls for an idle queue.
const flushInterval = 5 * time.Millisecond

type item struct {
	name string
	task driven.Task
}

// lane is a mutex-protected FIFO drained by a single goroutine.
type lane struct {
	mu     sync.Mutex
	items  []item
	closed bool
	signal chan struct{}
}

func newLane() *lane {
	return &lane{signal: make(chan struct{}, 1)}
}

func (l *lane) push(it item) {
	l.mu.Lock()
	l.items = append(l.items, it)
	l.mu.Unlock()
	l.notify()
}

// pop returns the next item, or reports whether the lane is closed and empty.
func (l *lane) pop() (it item, ok, closed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) == 0 {
		return item{}, false, l.closed
	}
	it = l.items[0]
	l.items[0] = item{}
	l.items = l.items[1:]
	return it, true, false
}

func (l *lane) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.notify()
}

func (l *lane) notify() {
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

// Option configures a Background queue.
type Option func(*Background)

// WithWorkers sets the number of lanes. Values below one are ignored.
func WithWorkers(n int) Option {
	return func(q *Background) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithRateLimit throttles task starts to limit per second with the given
// burst. A zero limit disables throttling.
func WithRateLimit(limit float64, burst int) Option {
	return func(q *Background) {
		if limit <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		q.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithRegisterer registers the queue collectors on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(q *Background) {
		q.registerer = reg
	}
}

// Background runs tasks on hashed FIFO lanes.
type Background struct {
	workers    int
	limiter    *rate.Limiter
	registerer prometheus.Registerer
	metrics    *metrics
	lanes      []*lane

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	inflight atomic.Int64
	wg       sync.WaitGroup
}

// NewBackground creates a queue and starts its lane goroutines.
func NewBackground(opts ...Option) *Background {
	q := &Background{workers: 1}
	for _, opt := range opts {
		opt(q)
	}

	q.metrics = newMetrics(q.registerer)
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.lanes = make([]*lane, q.workers)
	for i := range q.lanes {
		q.lanes[i] = newLane()
		q.wg.Add(1)
		go q.run(q.lanes[i])
	}
	return q
}

// NewBackgroundFromSettings creates a queue configured from settings.
func NewBackgroundFromSettings(s domain.QueueSettings, reg prometheus.Registerer) *Background {
	return NewBackground(
		WithWorkers(s.Workers),
		WithRateLimit(s.RateLimit, s.Burst),
		WithRegisterer(reg),
	)
}

// Enqueue schedules task on the lane selected by key.
func (q *Background) Enqueue(name, key string, task driven.Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", domain.ErrInvalidInput)
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return domain.ErrQueueClosed
	}

	q.inflight.Add(1)
	q.metrics.enqueued.WithLabelValues(name).Inc()
	q.metrics.pending.WithLabelValues(name).Inc()
	q.lanes[q.laneFor(key)].push(item{name: name, task: task})
	return nil
}

func (q *Background) laneFor(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(q.lanes)))
}

// Workers returns the number of lanes.
func (q *Background) Workers() int {
	return len(q.lanes)
}

// Pending returns the number of tasks enqueued but not yet finished.
func (q *Background) Pending() int {
	return int(q.inflight.Load())
}

// Flush waits until every enqueued task has finished or ctx expires.
func (q *Background) Flush(ctx context.Context) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for q.inflight.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Shutdown stops intake and cancels the context handed to tasks.
// Tasks still queued are invoked with the cancelled context so they can
// observe cancellation. Returns ctx.Err() if the lanes do not drain in time.
func (q *Background) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	for _, l := range q.lanes {
		l.close()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.Error("queue shutdown timed out with %d tasks pending", q.inflight.Load())
		return ctx.Err()
	}
}

func (q *Background) run(l *lane) {
	defer q.wg.Done()
	for {
		it, ok, closed := l.pop()
		if ok {
			q.execute(it)
			continue
		}
		if closed {
			return
		}
		<-l.signal
	}
}

func (q *Background) execute(it item) {
	defer q.inflight.Add(-1)
	q.metrics.pending.WithLabelValues(it.name).Dec()

	ctx := q.ctx
	if q.limiter != nil && ctx.Err() == nil {
		// Wait only fails when ctx is cancelled; the task still runs below.
		_ = q.limiter.Wait(ctx)
	}

	start := time.Now()
	err := invoke(ctx, it.task)
	q.metrics.duration.WithLabelValues(it.name).Observe(time.Since(start).Seconds())

	var pe *panicError
	switch {
	case errors.As(err, &pe):
		q.metrics.panicked.WithLabelValues(it.name).Inc()
		logger.Error("queue task %s %v\n%s", it.name, pe, pe.stack)
	case ctx.Err() != nil:
		q.metrics.cancelled.WithLabelValues(it.name).Inc()
		logger.Warn("queue task %s cancelled", it.name)
	case err != nil:
		q.metrics.failed.WithLabelValues(it.name).Inc()
		logger.Error("queue task %s abandoned: %v", it.name, err)
	default:
		q.metrics.completed.WithLabelValues(it.name).Inc()
	}
}

// panicError is a recovered task panic.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panicked: %v", e.value)
}

// invoke runs task, converting a panic into a *panicError.
func invoke(ctx context.Context, task driven.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return task(ctx)
}
