// Package metrics collects per-tool call metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ragline/ragline/pkg/logsink"
)

// Collector tracks call counts and durations per tool. It owns its registry,
// so tests never collide on the default one.
type Collector struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Collector with an isolated registry.
func New() *Collector {
	registry := prometheus.NewRegistry()

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ragline",
		Name:      "tool_calls_total",
		Help:      "Tool invocations by tool name and outcome.",
	}, []string{"tool", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ragline",
		Name:      "tool_call_duration_seconds",
		Help:      "Tool invocation latency by tool name.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})

	registry.MustRegister(calls, duration)

	return &Collector{registry: registry, calls: calls, duration: duration}
}

// ObserveToolCall records one completed call. Matches pipeline.ObserveFunc.
func (c *Collector) ObserveToolCall(tool string, status logsink.Status, elapsed time.Duration) {
	c.calls.WithLabelValues(tool, string(status)).Inc()
	c.duration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// Handler exposes the collector in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
