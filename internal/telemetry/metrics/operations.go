package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is implemented by anything that records SDL client activity.
// The disabled value NewMetrics returns (a nil *prometheusMetrics) is valid
// and every method on it is a no-op; a bare nil Metrics interface is not.
// Callers should hold onto whatever NewMetrics returns rather than branch on
// IsEnabled() at every call site.
type Metrics interface {
	ObserveOperation(op string, d time.Duration, err error)
	ObserveDiscoveryEvent(method string)
	SetBackendReady(namespace string, ready bool)
	IncRetry(component string)
}

// NewMetrics creates a Prometheus-backed Metrics instance, or a typed nil
// *prometheusMetrics if InitRegistry has not been called. Returning a typed
// nil rather than a bare nil interface matters here: every method above
// guards on a nil pointer receiver, so calls on the disabled instance still
// dispatch correctly instead of panicking on a nil interface.
func NewMetrics() Metrics {
	if !IsEnabled() {
		return (*prometheusMetrics)(nil)
	}
	return newPrometheusMetrics(GetRegistry())
}

type prometheusMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	discoveryEvents   *prometheus.CounterVec
	backendReady      *prometheus.GaugeVec
	retries           *prometheus.CounterVec
}

func newPrometheusMetrics(reg *prometheus.Registry) *prometheusMetrics {
	return &prometheusMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdl_operations_total",
				Help: "Total number of SDL storage operations by name and outcome",
			},
			[]string{"operation", "status"}, // status: "ok", "error"
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sdl_operation_duration_milliseconds",
				Help: "Duration of SDL storage operations in milliseconds",
				Buckets: []float64{
					0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000,
				},
			},
			[]string{"operation"},
		),
		discoveryEvents: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdl_discovery_events_total",
				Help: "Total number of database discovery events by method",
			},
			[]string{"method"}, // static, rcp, sentinel
		),
		backendReady: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sdl_backend_ready",
				Help: "Whether a namespace's backend handler has a ready database connection (1) or not (0)",
			},
			[]string{"namespace"},
		),
		retries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdl_retries_total",
				Help: "Total number of internal retry attempts by component",
			},
			[]string{"component"}, // e.g. "sentinel_discovery"
		),
	}
}

func (m *prometheusMetrics) ObserveOperation(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(op, status).Inc()
	m.operationDuration.WithLabelValues(op).Observe(float64(d.Microseconds()) / 1000.0)
}

func (m *prometheusMetrics) ObserveDiscoveryEvent(method string) {
	if m == nil {
		return
	}
	m.discoveryEvents.WithLabelValues(method).Inc()
}

func (m *prometheusMetrics) SetBackendReady(namespace string, ready bool) {
	if m == nil {
		return
	}
	v := 0.0
	if ready {
		v = 1.0
	}
	m.backendReady.WithLabelValues(namespace).Set(v)
}

func (m *prometheusMetrics) IncRetry(component string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(component).Inc()
}
