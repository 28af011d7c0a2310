// Package observability exposes process-wide Prometheus metrics for the
// session store.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type storeMetrics struct {
	activeSessions   prometheus.Gauge
	loadDuration     prometheus.Histogram
	saveDuration     prometheus.Histogram
	reloadsTotal     prometheus.Counter
	prunedTotal      prometheus.Counter
	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *storeMetrics
)

func getMetrics() *storeMetrics {
	metricsOnce.Do(func() {
		m := &storeMetrics{
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "sessfile_active_sessions",
					Help: "Session count in the most recently loaded table.",
				},
			),
			loadDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "sessfile_load_duration_seconds",
					Help:    "Session table load duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			saveDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "sessfile_save_duration_seconds",
					Help:    "Session table save duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			reloadsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sessfile_reloads_total",
					Help: "Total session table reloads from disk.",
				},
			),
			prunedTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sessfile_sessions_pruned_total",
					Help: "Total sessions removed by the cleaner.",
				},
			),
			toolCallsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sessfile_tool_calls_total",
					Help: "Total tool calls served, by tool and status.",
				},
				[]string{"tool", "status"},
			),
			toolCallDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "sessfile_tool_call_duration_seconds",
					Help:    "Tool call duration in seconds by tool.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
		}

		prometheus.MustRegister(
			m.activeSessions,
			m.loadDuration,
			m.saveDuration,
			m.reloadsTotal,
			m.prunedTotal,
			m.toolCallsTotal,
			m.toolCallDuration,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// SetActiveSessions records the session count of the current table.
func SetActiveSessions(count int) {
	getMetrics().activeSessions.Set(float64(count))
}

// RecordStoreLoad records the duration of a table load from disk.
func RecordStoreLoad(d time.Duration) {
	getMetrics().loadDuration.Observe(d.Seconds())
}

// RecordStoreSave records the duration of a table save to disk.
func RecordStoreSave(d time.Duration) {
	getMetrics().saveDuration.Observe(d.Seconds())
}

// RecordStoreReload counts a reload triggered by an observed disk change.
func RecordStoreReload() {
	getMetrics().reloadsTotal.Inc()
}

// RecordSessionsPruned counts sessions removed by the cleaner.
func RecordSessionsPruned(count int) {
	getMetrics().prunedTotal.Add(float64(count))
}

// RecordToolCall counts one served tool call and its duration.
func RecordToolCall(tool, status string, d time.Duration) {
	m := getMetrics()
	m.toolCallsTotal.WithLabelValues(tool, status).Inc()
	m.toolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// MetricsHandler returns an HTTP handler serving the metrics endpoint.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}
