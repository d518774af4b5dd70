package metrics

import (
	"time"

	"github.com/ethanadams/sigv4probe/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector manages Prometheus metrics for synthetic signed-request probes
type Collector struct {
	// Probe execution metrics
	probeRunsTotal   *prometheus.CounterVec
	probeRunDuration *prometheus.HistogramVec

	// Unified signed-request operation metrics
	opDuration *prometheus.HistogramVec
	opBytes    *prometheus.CounterVec
	opCount    *prometheus.CounterVec
	opSuccess  *prometheus.CounterVec

	// Granular HTTP timing metrics
	httpTiming *prometheus.HistogramVec

	// Live/instant metrics (Gauges for real-time visibility)
	lastDuration  *prometheus.GaugeVec
	lastHTTPPhase *prometheus.GaugeVec

	// Tee buffer footprint, sampled after each payload hash resolution
	teeBufferBytes *prometheus.GaugeVec
}

// HTTPTimings holds detailed HTTP timing breakdown
type HTTPTimings struct {
	DNSLookup    time.Duration
	TCPConnect   time.Duration
	TLSHandshake time.Duration
	TTFB         time.Duration // Time to first byte (from request sent to first response byte)
	Transfer     time.Duration // Data transfer time
	Total        time.Duration
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		probeRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigv4probe_runs_total",
				Help: "Total number of synthetic probe runs",
			},
			[]string{"probe_name", "step_name", "executor", "status"},
		),
		probeRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigv4probe_duration_seconds",
				Help:    "Duration of synthetic probe runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"probe_name", "step_name", "executor"},
		),
		opDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigv4probe_op_duration_seconds",
				Help:    "Duration of signed-request operations (sign, send)",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"probe_name", "action", "executor", "path", "body_size"},
		),
		opBytes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigv4probe_op_bytes_total",
				Help: "Total bytes transferred (sent/received) to/from the signed endpoint",
			},
			[]string{"probe_name", "action", "executor", "path"},
		),
		opCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigv4probe_op_count_total",
				Help: "Total count of signed-request operations",
			},
			[]string{"probe_name", "action", "executor", "path"},
		),
		opSuccess: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigv4probe_op_success_total",
				Help: "Total successful signed-request operations",
			},
			[]string{"probe_name", "action", "executor", "status"},
		),
		httpTiming: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigv4probe_http_timing_seconds",
				Help:    "Granular HTTP timing breakdown (dns, connect, tls, ttfb, transfer, sign)",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"probe_name", "action", "executor", "phase"},
		),
		lastDuration: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sigv4probe_last_duration_seconds",
				Help: "Duration of the most recent operation (live/instant value)",
			},
			[]string{"probe_name", "action", "executor"},
		),
		lastHTTPPhase: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sigv4probe_last_http_phase_seconds",
				Help: "Most recent HTTP phase timing (live/instant value)",
			},
			[]string{"probe_name", "action", "executor", "phase"},
		),
		teeBufferBytes: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sigv4probe_tee_buffer_bytes",
				Help: "Size of the tee stream's buffered request body at the last payload hash resolution",
			},
			[]string{"probe_name", "action", "executor"},
		),
	}
}

// RecordProbeRun records a probe step execution
func (c *Collector) RecordProbeRun(probeName, stepName, executor string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.probeRunsTotal.WithLabelValues(probeName, stepName, executor, status).Inc()
	c.probeRunDuration.WithLabelValues(probeName, stepName, executor).Observe(duration.Seconds())
}

// RecordRequest records a single signed-request operation (e.g. "send").
func (c *Collector) RecordRequest(probeName, executor, action, path, bodySize string, duration time.Duration, bytes int64, success bool) {
	if bodySize != "" && duration > 0 {
		c.opDuration.WithLabelValues(probeName, action, executor, path, bodySize).Observe(duration.Seconds())
		logging.Debug("    RecordRequest histogram: probe=%s executor=%s bodySize=%s duration=%v", probeName, executor, bodySize, duration)
	}
	if duration > 0 {
		c.lastDuration.WithLabelValues(probeName, action, executor).Set(duration.Seconds())
	}
	if success {
		c.opBytes.WithLabelValues(probeName, action, executor, path).Add(float64(bytes))
		c.opCount.WithLabelValues(probeName, action, executor, path).Inc()
		c.opSuccess.WithLabelValues(probeName, action, executor, "success").Inc()
	} else {
		c.opSuccess.WithLabelValues(probeName, action, executor, "failure").Inc()
	}
}

// RecordHTTPTiming records granular HTTP timing breakdown
func (c *Collector) RecordHTTPTiming(probeName, action, executor string, timings HTTPTimings) {
	record := func(phase string, d time.Duration) {
		if d <= 0 {
			return
		}
		c.httpTiming.WithLabelValues(probeName, action, executor, phase).Observe(d.Seconds())
		c.lastHTTPPhase.WithLabelValues(probeName, action, executor, phase).Set(d.Seconds())
	}
	record("dns", timings.DNSLookup)
	record("connect", timings.TCPConnect)
	record("tls", timings.TLSHandshake)
	record("ttfb", timings.TTFB)
	record("transfer", timings.Transfer)
	record("total", timings.Total)
}

// RecordHTTPTimingPhase records a single timing phase (e.g., "sign")
func (c *Collector) RecordHTTPTimingPhase(probeName, action, executor, phase string, duration time.Duration) {
	if duration > 0 {
		c.httpTiming.WithLabelValues(probeName, action, executor, phase).Observe(duration.Seconds())
		c.lastHTTPPhase.WithLabelValues(probeName, action, executor, phase).Set(duration.Seconds())
	}
}

// RecordTeeBufferSize records the tee stream's buffered size after a
// payload hash resolution, giving operators visibility into the memory
// cost of signing large bodies.
func (c *Collector) RecordTeeBufferSize(probeName, executor string, bytes int64) {
	c.teeBufferBytes.WithLabelValues(probeName, "sign", executor).Set(float64(bytes))
}
