package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewRegistersCountersOnPrivateRegistry(t *testing.T) {
	m := New()

	m.TurnsTotal.WithLabelValues("ok").Inc()
	m.TokensTotal.WithLabelValues("input").Add(12)
	m.CleaningRuns.Inc()
	m.CostUSD.Set(0.42)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.TurnsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.TokensTotal.WithLabelValues("input")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CleaningRuns))
	assert.Equal(t, 0.42, testutil.ToFloat64(m.CostUSD))
}

func TestNewBuildsIndependentRegistriesPerInstance(t *testing.T) {
	a := New()
	b := New()

	a.TurnsTotal.WithLabelValues("ok").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.TurnsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.TurnsTotal.WithLabelValues("ok")))
}
