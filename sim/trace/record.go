// Package trace provides per-request decision recording for parking sessions.
// This package has no dependencies on sim/. It stores pure data types.
package trace

import "time"

// ResolutionRecord captures one destination lookup.
type ResolutionRecord struct {
	RequestID string
	Clock     time.Time
	Query     string
	HubKey    string // empty when Matched is false
	Matched   bool
}

// ForecastRecord captures one demand forecast decision.
type ForecastRecord struct {
	RequestID      string
	Clock          time.Time
	Classification string
	Deferred       bool
	DrawnWait      float64 // seconds drawn by the forecast
	EffectiveWait  float64 // seconds actually waited after any max-wait cap
}

// AssignmentRecord captures one locked parking assignment.
type AssignmentRecord struct {
	RequestID      string
	Clock          time.Time
	HubKey         string
	SpotName       string
	Category       string
	DistanceMeters int
	WaitedSeconds  float64
}

// FailureRecord captures a request that ended without an assignment for a
// reason other than a failed lookup.
type FailureRecord struct {
	RequestID string
	Clock     time.Time
	Reason    string
	Canceled  bool // superseded by a newer request or session teardown
}
