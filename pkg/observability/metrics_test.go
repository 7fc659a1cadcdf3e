package observability

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ObserveCompile(time.Millisecond, nil)
	m.ObserveCompile(time.Millisecond, errors.New("boom"))
	m.ObserveCompile(time.Millisecond, nil)
	m.ObservePlanner(time.Second, nil)
	m.ObserveCache(ResultHit)
	m.ObserveCache(ResultMiss)
	m.ObserveCache(ResultMiss)
	m.AddWarnings(3)
	m.AddWarnings(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.compilations.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compilations.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.plannerCalls.WithLabelValues(ResultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(ResultMiss)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.warnings))
}

func TestMetrics_Exposition(t *testing.T) {
	m := NewMetrics()
	m.ObservePlanner(10*time.Millisecond, errors.New("down"))

	expected := `
# HELP flowplan_planner_calls_total Total number of calls to the external planner
# TYPE flowplan_planner_calls_total counter
flowplan_planner_calls_total{result="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "flowplan_planner_calls_total"))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.AddWarnings(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.warnings))
}
