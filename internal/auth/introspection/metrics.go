package introspection

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values for introspection metrics.
const (
	ResultSuccess      = "success"
	ResultHTTPError    = "http_error"
	ResultNetworkError = "network_error"
	ResultReadError    = "read_error"
	ResultRequestError = "request_error"
	ResultCircuitOpen  = "circuit_open"
)

// Metrics holds Prometheus metrics for introspection calls.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	httpStatusTotal *prometheus.CounterVec
	breakerState    prometheus.Gauge
}

// NewMetrics creates introspection metrics registered with prometheus.DefaultRegisterer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates introspection metrics with a custom registerer.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "bpmnauth"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "introspection",
				Name:      "requests_total",
				Help:      "Total number of token introspection calls",
			},
			[]string{"result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "introspection",
				Name:      "request_duration_seconds",
				Help:      "Token introspection call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		httpStatusTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "introspection",
				Name:      "http_status_total",
				Help:      "Introspection responses by HTTP status code",
			},
			[]string{"code"},
		),
		breakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "introspection",
				Name:      "circuit_breaker_state",
				Help:      "Introspection circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
		),
	}

	m.requestsTotal = registerOrExisting(registerer, m.requestsTotal)
	m.requestDuration = registerOrExisting(registerer, m.requestDuration)
	m.httpStatusTotal = registerOrExisting(registerer, m.httpStatusTotal)
	m.breakerState = registerOrExisting(registerer, m.breakerState)

	return m
}

// registerOrExisting registers c, or returns the identical collector that
// is already registered.
func registerOrExisting[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// Init pre-initializes the result label values.
func (m *Metrics) Init() {
	for _, result := range []string{
		ResultSuccess, ResultHTTPError, ResultNetworkError,
		ResultReadError, ResultRequestError, ResultCircuitOpen,
	} {
		m.requestsTotal.WithLabelValues(result)
		m.requestDuration.WithLabelValues(result)
	}
}

// RecordRequest records one introspection call.
func (m *Metrics) RecordRequest(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(result).Inc()
	m.requestDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordStatus records the HTTP status of an introspection response.
func (m *Metrics) RecordStatus(code int) {
	if m == nil {
		return
	}
	m.httpStatusTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// SetBreakerState records the breaker state.
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.breakerState.Set(float64(state))
}
