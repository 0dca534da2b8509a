package auth

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsWithRegisterer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		namespace string
		prefix    string
	}{
		{name: "default namespace", namespace: "", prefix: "bpmnauth"},
		{name: "custom namespace", namespace: "engine", prefix: "engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := prometheus.NewRegistry()
			m := NewMetricsWithRegisterer(tt.namespace, reg)
			require.NotNil(t, m)
			m.Init()

			families, err := reg.Gather()
			require.NoError(t, err)

			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			assert.Contains(t, names, tt.prefix+"_auth_requests_total")
			assert.Contains(t, names, tt.prefix+"_auth_request_duration_seconds")
			assert.Equal(t, 7, testutil.CollectAndCount(m.requestsTotal))
		})
	}
}

func TestMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	m := NewMetricsWithRegisterer("test", prometheus.NewRegistry())
	m.RecordRequest(OutcomeInvalidToken, 5*time.Millisecond)
	m.RecordRequest(OutcomeInvalidToken, 7*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(OutcomeInvalidToken)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(OutcomeAuthenticated)))
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest(OutcomeAuthenticated, time.Millisecond)
	})
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		NewMetrics("dup_test")
		NewMetrics("dup_test")
	})
}

func TestNewMetricsWithRegisterer_SharesExistingCollectors(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	first := NewMetricsWithRegisterer("shared", registry)
	second := NewMetricsWithRegisterer("shared", registry)

	first.RecordRequest(OutcomeAuthenticated, time.Millisecond)
	second.RecordRequest(OutcomeAuthenticated, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(first.requestsTotal.WithLabelValues(OutcomeAuthenticated)))
	assert.Same(t, first.requestsTotal, second.requestsTotal)
}
