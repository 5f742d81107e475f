package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures lookups, forecasts, assignments and failures.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelDecisions
}

// SessionTrace collects decision records across the requests of a session.
// Not thread-safe; the owning session serializes access.
type SessionTrace struct {
	Config      TraceConfig
	Resolutions []ResolutionRecord
	Forecasts   []ForecastRecord
	Assignments []AssignmentRecord
	Failures    []FailureRecord
}

// NewSessionTrace creates a SessionTrace ready for recording.
func NewSessionTrace(config TraceConfig) *SessionTrace {
	return &SessionTrace{
		Config:      config,
		Resolutions: make([]ResolutionRecord, 0),
		Forecasts:   make([]ForecastRecord, 0),
		Assignments: make([]AssignmentRecord, 0),
		Failures:    make([]FailureRecord, 0),
	}
}

// RecordResolution appends a lookup record.
func (st *SessionTrace) RecordResolution(record ResolutionRecord) {
	st.Resolutions = append(st.Resolutions, record)
}

// RecordForecast appends a forecast record.
func (st *SessionTrace) RecordForecast(record ForecastRecord) {
	st.Forecasts = append(st.Forecasts, record)
}

// RecordAssignment appends an assignment record.
func (st *SessionTrace) RecordAssignment(record AssignmentRecord) {
	st.Assignments = append(st.Assignments, record)
}

// RecordFailure appends a failure record.
func (st *SessionTrace) RecordFailure(record FailureRecord) {
	st.Failures = append(st.Failures, record)
}
