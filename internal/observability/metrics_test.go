package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

func TestMetrics_Completion(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.ObserveCompletion("gemini", "success", 2*time.Second)
	m.ObserveCompletion("gemini", "success", time.Second)
	m.ObserveCompletion("groq", "missing_credential", 0)
	m.IncRetry("gemini")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CompletionsTotal.WithLabelValues("gemini", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompletionsTotal.WithLabelValues("groq", "missing_credential")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetriesTotal.WithLabelValues("gemini")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CompletionDuration))

	count, err := testutil.GatherAndCount(reg, "pointer_gateway_completions_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_ApplyAndHTTP(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveApply("replace_range", "applied")
	m.ObserveApply("replace_range", "invalid")
	m.ObserveVerification("repaired")
	m.ObserveHTTP("POST", "/api/chat", "200", 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AppliesTotal.WithLabelValues("replace_range", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("repaired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/chat", "200")))
}
