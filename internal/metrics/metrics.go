// Package metrics exposes Prometheus metrics for the frame cycle.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default latency buckets in milliseconds. Player calls over the websocket
// bridge land in the tens of milliseconds; plugin subprocesses in the
// hundreds.
var defaultLatencyBuckets = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// Manager owns the metrics of one running app.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       *prometheus.Registry

	frames        prometheus.Counter
	detectErrors  prometheus.Counter
	cycleLatency  prometheus.Histogram
	candidates    *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	dispatches    *prometheus.CounterVec
	dispatchFails *prometheus.CounterVec
	notReady      prometheus.Counter
	latency       prometheus.Histogram
	volume        prometheus.Gauge
	enabled       prometheus.Gauge
}

// NewManager creates a Manager. Without WithRegistry a fresh registry is
// used so that several managers can coexist in tests.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "tubecontrol",
		subsystem:      "engine",
		latencyBuckets: defaultLatencyBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.frames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_total",
		Help:      "Frames processed by the frame cycle",
	})

	m.detectErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detect_errors_total",
		Help:      "Frames the detector failed on",
	})

	m.cycleLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycle_latency_milliseconds",
		Help:      "Time from frame read to end of the decision cycle",
		Buckets:   m.latencyBuckets,
	})

	m.candidates = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "candidates_total",
			Help:      "Resolved candidate actions by action and modality",
		},
		[]string{"action", "modality"},
	)

	m.decisions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "decisions_total",
			Help:      "Admission decisions by reason",
		},
		[]string{"reason"},
	)

	m.dispatches = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "dispatches_total",
			Help:      "Player commands fired by operation",
		},
		[]string{"operation"},
	)

	m.dispatchFails = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "dispatch_errors_total",
			Help:      "Player commands that returned an error, by operation",
		},
		[]string{"operation"},
	)

	m.notReady = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "player_not_ready_total",
		Help:      "Admitted commands skipped because the player was not ready",
	})

	m.latency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_latency_milliseconds",
		Help:      "Player call latency in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.volume = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "player_volume",
		Help:      "Last volume set by a volume command",
	})

	m.enabled = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enabled",
		Help:      "1 while the frame cycle is running",
	})
}

// RecordFrame counts one processed frame and its cycle latency.
func (m *Manager) RecordFrame(d time.Duration) {
	m.frames.Inc()
	m.cycleLatency.Observe(milliseconds(d))
}

// RecordDetectError counts a failed detection.
func (m *Manager) RecordDetectError() {
	m.detectErrors.Inc()
}

// RecordCandidate counts a resolved candidate.
func (m *Manager) RecordCandidate(action, modality string) {
	m.candidates.WithLabelValues(action, modality).Inc()
}

// RecordDecision counts an admission decision.
func (m *Manager) RecordDecision(reason string) {
	m.decisions.WithLabelValues(reason).Inc()
}

// RecordDispatch counts a fired command and its latency.
func (m *Manager) RecordDispatch(operation string, d time.Duration) {
	m.dispatches.WithLabelValues(operation).Inc()
	m.latency.Observe(milliseconds(d))
}

// RecordDispatchError counts a failed player call.
func (m *Manager) RecordDispatchError(operation string) {
	m.dispatchFails.WithLabelValues(operation).Inc()
}

// RecordNotReady counts a command skipped for an unready player.
func (m *Manager) RecordNotReady() {
	m.notReady.Inc()
}

// SetVolume records the player volume after a volume command.
func (m *Manager) SetVolume(v int) {
	m.volume.Set(float64(v))
}

// SetEnabled records whether the frame cycle is running.
func (m *Manager) SetEnabled(on bool) {
	if on {
		m.enabled.Set(1)
		return
	}
	m.enabled.Set(0)
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
