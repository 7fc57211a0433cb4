// ============================================================================
// Dynapool Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collect and expose Prometheus metrics for a running pool.Pool.
//
// Metric Categories:
//
//   1. Task Counters - Cumulative, monotonically increasing:
//      - pool_tasks_submitted_total
//      - pool_tasks_dispatched_total
//      - pool_tasks_completed_total
//      - pool_tasks_failed_total
//
//   2. Performance Metrics (Histogram):
//      - pool_task_latency_seconds: dispatch-to-completion latency
//        * Buckets: Prometheus defaults
//
//   3. Status Metrics (Gauge) - Instantaneous values:
//      - pool_active_workers
//      - pool_idle_workers
//      - pool_pending_tasks
//
// Collector satisfies pool.Observer structurally; this package never
// imports pkg/pool, so there is no import cycle, matching the decoupling
// pool.Observer was designed for.
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus. Default port: 9090.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects Prometheus metrics for a pool. It owns a private
// registry rather than registering against prometheus.DefaultRegisterer, so
// more than one Collector can exist in a process (useful in tests) without
// "duplicate metrics collector registration" panics.
type Collector struct {
	registry *prometheus.Registry

	tasksSubmitted  prometheus.Counter
	tasksDispatched prometheus.Counter
	tasksCompleted  prometheus.Counter
	tasksFailed     prometheus.Counter

	taskLatency prometheus.Histogram

	activeWorkers prometheus.Gauge
	idleWorkers   prometheus.Gauge
	pendingTasks  prometheus.Gauge
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_tasks_submitted_total",
			Help: "Total number of tasks submitted to the pool",
		}),
		tasksDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_tasks_dispatched_total",
			Help: "Total number of tasks dispatched to a worker",
		}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_tasks_completed_total",
			Help: "Total number of tasks that ran to completion",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_tasks_failed_total",
			Help: "Total number of worker self-terminations caused by a task",
		}),
		taskLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_task_latency_seconds",
			Help:    "Dispatch-to-completion latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_active_workers",
			Help: "Current number of active (idle + computing) workers",
		}),
		idleWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_idle_workers",
			Help: "Current number of idle workers",
		}),
		pendingTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_pending_tasks",
			Help: "Current number of tasks waiting for a worker",
		}),
	}

	c.registry.MustRegister(
		c.tasksSubmitted,
		c.tasksDispatched,
		c.tasksCompleted,
		c.tasksFailed,
		c.taskLatency,
		c.activeWorkers,
		c.idleWorkers,
		c.pendingTasks,
	)

	return c
}

// Registry exposes the private registry, e.g. for StartServer.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// OnSubmit implements pool.Observer.
func (c *Collector) OnSubmit() {
	c.tasksSubmitted.Inc()
}

// OnDispatch implements pool.Observer.
func (c *Collector) OnDispatch() {
	c.tasksDispatched.Inc()
}

// OnComplete implements pool.Observer.
func (c *Collector) OnComplete(latency time.Duration) {
	c.tasksCompleted.Inc()
	c.taskLatency.Observe(latency.Seconds())
}

// OnWorkerFailed implements pool.Observer.
func (c *Collector) OnWorkerFailed() {
	c.tasksFailed.Inc()
}

// OnResize implements pool.Observer.
func (c *Collector) OnResize(active, idle, pending int) {
	c.activeWorkers.Set(float64(active))
	c.idleWorkers.Set(float64(idle))
	c.pendingTasks.Set(float64(pending))
}

// StartServer starts the Prometheus metrics HTTP server, blocking until it
// fails or the process exits.
func StartServer(port int, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
