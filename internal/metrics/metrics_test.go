package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AlarmTicks.Inc()
	m.AIStreamsFinished.WithLabelValues("complete").Inc()
	m.HTTPRequests.WithLabelValues("GET", "/api/v1/tasks", "200").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64, len(families))
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			values[f.GetName()] += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, values["autopay_alert_alarm_ticks_total"])
	assert.Equal(t, 1.0, values["autopay_alert_ai_streams_finished_total"])
	assert.Equal(t, 1.0, values["autopay_alert_http_requests_total"])
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestNewNop_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop()
		NewNop()
	})
}
