package metrics

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkos/parkos/sim"
)

func TestCollector_CountsOutcomes(t *testing.T) {
	// GIVEN a collector on a private registry
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	// WHEN the session reports a mix of outcomes
	c.OnForecast("a", sim.ForecastOutcome{Classification: sim.ClassModerate})
	c.OnForecast("b", sim.ForecastOutcome{Classification: sim.ClassHighDemand})
	c.OnAssigned("a", "WFC", sim.AssignmentResult{FinalDistanceMeters: 317}, 6)
	c.OnAssigned("b", "WFC", sim.AssignmentResult{FinalDistanceMeters: 430}, 0)
	c.OnAborted("c", fmt.Errorf("%w: %q", sim.ErrResolution, "东京"))
	c.OnAborted("d", sim.ErrCanceled)
	c.OnAborted("e", fmt.Errorf("%w: boom", sim.ErrUnexpected))

	// THEN each series reflects them
	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues(OutcomeAssigned)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues(OutcomeUnresolved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues(OutcomeCanceled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.forecasts.WithLabelValues(string(sim.ClassModerate))))

	expected := `
# HELP parkos_wait_seconds Deferred wait before a spot was released.
# TYPE parkos_wait_seconds histogram
parkos_wait_seconds_bucket{le="1"} 0
parkos_wait_seconds_bucket{le="2"} 0
parkos_wait_seconds_bucket{le="3"} 0
parkos_wait_seconds_bucket{le="4"} 0
parkos_wait_seconds_bucket{le="5"} 0
parkos_wait_seconds_bucket{le="6"} 1
parkos_wait_seconds_bucket{le="7"} 1
parkos_wait_seconds_bucket{le="8"} 1
parkos_wait_seconds_bucket{le="+Inf"} 1
parkos_wait_seconds_sum 6
parkos_wait_seconds_count 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "parkos_wait_seconds"))
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestCollector_WithSession(t *testing.T) {
	// GIVEN a seeded session feeding the collector
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	sched := sim.NewVirtualScheduler(sim.NewRealtimeScheduler().Now())
	s, err := sim.NewSession(sim.DefaultRegistry(), sched, sim.NewPartitionedRNG(sim.NewSimulationKey(3)), sim.DefaultSessionConfig())
	require.NoError(t, err)
	s.AddListener(c)

	// WHEN ten requests run
	for i := 0; i < 10; i++ {
		_, err := s.Submit("洪崖洞")
		require.NoError(t, err)
		sched.RunUntilIdle()
	}

	// THEN every one is counted as assigned and forecast
	assert.Equal(t, 10.0, testutil.ToFloat64(c.requests.WithLabelValues(OutcomeAssigned)))
	total := 0.0
	for _, class := range []sim.Classification{sim.ClassHighDemand, sim.ClassModerate, sim.ClassRegimeShift} {
		total += testutil.ToFloat64(c.forecasts.WithLabelValues(string(class)))
	}
	assert.Equal(t, 10.0, total)
	n, err := testutil.GatherAndCount(reg, "parkos_walk_distance_meters")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
