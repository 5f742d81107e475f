// Package metrics exports session outcomes as Prometheus series.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/parkos/parkos/sim"
)

// Outcome label values for parkos_requests_total.
const (
	OutcomeAssigned   = "assigned"
	OutcomeUnresolved = "unresolved"
	OutcomeCanceled   = "canceled"
	OutcomeFailed     = "failed"
)

// Collector implements sim.Listener and records every pipeline outcome.
type Collector struct {
	requests  *prometheus.CounterVec
	forecasts *prometheus.CounterVec
	wait      prometheus.Histogram
	distance  prometheus.Histogram
}

var _ sim.Listener = (*Collector)(nil)

// NewCollector creates the series and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parkos_requests_total",
			Help: "Parking requests by final outcome.",
		}, []string{"outcome"}),
		forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parkos_forecasts_total",
			Help: "Demand forecasts by classification.",
		}, []string{"classification"}),
		wait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "parkos_wait_seconds",
			Help:    "Deferred wait before a spot was released.",
			Buckets: prometheus.LinearBuckets(1, 1, sim.MaxDeferSeconds),
		}),
		distance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "parkos_walk_distance_meters",
			Help:    "Final walking distance of assigned spots.",
			Buckets: prometheus.LinearBuckets(300, 50, 6),
		}),
	}
	for _, col := range []prometheus.Collector{c.requests, c.forecasts, c.wait, c.distance} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	for _, o := range []string{OutcomeAssigned, OutcomeUnresolved, OutcomeCanceled, OutcomeFailed} {
		c.requests.WithLabelValues(o)
	}
	return c, nil
}

// OnForecast implements sim.Listener.
func (c *Collector) OnForecast(_ string, outcome sim.ForecastOutcome) {
	c.forecasts.WithLabelValues(string(outcome.Classification)).Inc()
}

// OnAssigned implements sim.Listener.
func (c *Collector) OnAssigned(_, _ string, result sim.AssignmentResult, waitedSeconds float64) {
	c.requests.WithLabelValues(OutcomeAssigned).Inc()
	c.distance.Observe(float64(result.FinalDistanceMeters))
	if waitedSeconds > 0 {
		c.wait.Observe(waitedSeconds)
	}
}

// OnAborted implements sim.Listener.
func (c *Collector) OnAborted(_ string, err error) {
	c.requests.WithLabelValues(outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, sim.ErrResolution):
		return OutcomeUnresolved
	case errors.Is(err, sim.ErrCanceled):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}
