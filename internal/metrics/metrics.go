// Package metrics exports call session counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "echocall"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	sessionsActive   prometheus.Gauge
	sessionsTotal    *prometheus.CounterVec
	sessionFailures  prometheus.Counter
	sessionDuration  prometheus.Histogram
	wiringActive     prometheus.Gauge
	callsClosed      *prometheus.CounterVec
	engineErrors     *prometheus.CounterVec
	receivingStarted *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Call sessions currently owning a media graph",
		}),
		sessionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Call sessions created, by mode",
		}, []string{"mode"}),
		sessionFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_failures_total",
			Help:      "Calls rejected because their graph could not start",
		}),
		sessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Lifetime of call sessions",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		wiringActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wiring_elements_active",
			Help:      "Transient wiring elements inserted for data paths",
		}),
		callsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_closed_total",
			Help:      "Close commands issued, by reason",
		}, []string{"reason"}),
		engineErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Error messages posted on graph buses, by element",
		}, []string{"element"}),
		receivingStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receiving_started_total",
			Help:      "Remote data paths that appeared, by media kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SessionOpened(mode string) {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
	m.sessionsTotal.WithLabelValues(mode).Inc()
}

func (m *Metrics) SessionClosed(started time.Time) {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
	m.sessionDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) SessionFailed() {
	if m == nil {
		return
	}
	m.sessionFailures.Inc()
}

func (m *Metrics) WiringAdded() {
	if m == nil {
		return
	}
	m.wiringActive.Inc()
}

func (m *Metrics) WiringRemoved() {
	if m == nil {
		return
	}
	m.wiringActive.Dec()
}

func (m *Metrics) CallClosed(reason string) {
	if m == nil {
		return
	}
	m.callsClosed.WithLabelValues(reason).Inc()
}

func (m *Metrics) EngineError(element string) {
	if m == nil {
		return
	}
	m.engineErrors.WithLabelValues(element).Inc()
}

func (m *Metrics) ReceivingStarted(kind string) {
	if m == nil {
		return
	}
	m.receivingStarted.WithLabelValues(kind).Inc()
}
