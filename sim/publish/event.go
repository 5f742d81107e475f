// Package publish forwards session outcomes to downstream consumers as
// assignment events.
package publish

import (
	"time"

	"github.com/parkos/parkos/sim"
)

// Event kinds.
const (
	KindAssigned = "assigned"
	KindAborted  = "aborted"
)

// Event is the wire payload for one finished request.
type Event struct {
	Kind           string    `json:"kind"`
	RequestID      string    `json:"requestId"`
	HubKey         string    `json:"hubKey,omitempty"`
	SpotName       string    `json:"spotName,omitempty"`
	Category       string    `json:"category,omitempty"`
	DistanceMeters int       `json:"distanceMeters,omitempty"`
	WalkMinutes    int       `json:"walkMinutes,omitempty"`
	WaitedSeconds  float64   `json:"waitedSeconds"`
	Reason         string    `json:"reason,omitempty"`
	EmittedAt      time.Time `json:"emittedAt"`
}

func assignedEvent(requestID, hubKey string, result sim.AssignmentResult, waited float64, now time.Time) Event {
	return Event{
		Kind:           KindAssigned,
		RequestID:      requestID,
		HubKey:         hubKey,
		SpotName:       result.SpotName,
		Category:       string(result.Category),
		DistanceMeters: result.FinalDistanceMeters,
		WalkMinutes:    result.WalkMinutes(),
		WaitedSeconds:  waited,
		EmittedAt:      now,
	}
}

func abortedEvent(requestID string, err error, now time.Time) Event {
	return Event{
		Kind:      KindAborted,
		RequestID: requestID,
		Reason:    err.Error(),
		EmittedAt: now,
	}
}
