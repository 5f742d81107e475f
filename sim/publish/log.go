package publish

import (
	"github.com/sirupsen/logrus"

	"github.com/parkos/parkos/sim"
)

// LogPublisher writes one structured log line per finished request.
type LogPublisher struct {
	log logrus.FieldLogger
}

var _ sim.Listener = (*LogPublisher)(nil)

// NewLogPublisher logs through l, or the standard logrus logger when l is nil.
func NewLogPublisher(l logrus.FieldLogger) *LogPublisher {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &LogPublisher{log: l}
}

// OnForecast implements sim.Listener.
func (p *LogPublisher) OnForecast(requestID string, outcome sim.ForecastOutcome) {
	p.log.WithFields(logrus.Fields{
		"request":        requestID,
		"classification": outcome.Classification,
		"defer":          outcome.ShouldDefer,
		"wait":           outcome.WaitSeconds,
	}).Debug("forecast")
}

// OnAssigned implements sim.Listener.
func (p *LogPublisher) OnAssigned(requestID, hubKey string, result sim.AssignmentResult, waitedSeconds float64) {
	p.log.WithFields(logrus.Fields{
		"request":  requestID,
		"hub":      hubKey,
		"spot":     result.SpotName,
		"category": result.Category.DisplayName(),
		"meters":   result.FinalDistanceMeters,
		"walk_min": result.WalkMinutes(),
		"waited":   waitedSeconds,
	}).Info("spot assigned")
}

// OnAborted implements sim.Listener.
func (p *LogPublisher) OnAborted(requestID string, err error) {
	p.log.WithFields(logrus.Fields{
		"request": requestID,
		"reason":  err.Error(),
	}).Warn("request aborted")
}
