package auth

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for authentication operations.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance.
// Metrics are registered with prometheus.DefaultRegisterer so they are
// exposed on the default /metrics endpoint.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates a new Metrics instance with a custom registerer.
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
				Subsystem: "auth",
				Name:      "requests_total",
				Help:      "Total number of bearer token authentications by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "request_duration_seconds",
				Help:      "Bearer token authentication duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"outcome"},
		),
	}

	m.requestsTotal = registerOrExisting(registerer, m.requestsTotal)
	m.requestDuration = registerOrExisting(registerer, m.requestDuration)

	return m
}

// registerOrExisting registers c. When an identical collector is already
// registered, that collector is returned so every Metrics instance built on
// the same registerer shares one set of series.
func registerOrExisting[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	err := registerer.Register(c)
	if err == nil {
		return c
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	return c
}

// Init pre-initializes every outcome label so the series appear at startup.
func (m *Metrics) Init() {
	for _, outcome := range []string{
		OutcomeAuthenticated,
		OutcomeMissingHeader,
		OutcomeInvalidHeader,
		OutcomeInvalidToken,
		OutcomeMissingUsername,
		OutcomeServerError,
		OutcomeUnreadableResponse,
	} {
		m.requestsTotal.WithLabelValues(outcome)
		m.requestDuration.WithLabelValues(outcome)
	}
}

// RecordRequest records one authentication.
func (m *Metrics) RecordRequest(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
