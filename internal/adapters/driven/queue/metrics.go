package queue

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "sercha_indexer"
	subsystem = "queue"
)

type metrics struct {
	enqueued  *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	panicked  *prometheus.CounterVec
	cancelled *prometheus.CounterVec
	pending   *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	labels := []string{"task"}
	counter := func(name, help string) *prometheus.CounterVec {
		return register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, labels))
	}

	return &metrics{
		enqueued:  counter("tasks_enqueued_total", "Tasks accepted by the queue."),
		completed: counter("tasks_completed_total", "Tasks that returned without error."),
		failed:    counter("tasks_failed_total", "Tasks abandoned after returning an error."),
		panicked:  counter("tasks_panicked_total", "Tasks that panicked."),
		cancelled: counter("tasks_cancelled_total", "Tasks run after the queue was cancelled."),
		pending: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_pending",
			Help:      "Tasks waiting in a lane.",
		}, labels)),
		duration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "task_duration_seconds",
			Help:      "Task run time.",
			Buckets:   prometheus.DefBuckets,
		}, labels)),
	}
}

// register registers c on reg, reusing an already registered collector
// so several queues can share one registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}
