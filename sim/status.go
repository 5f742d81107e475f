package sim

import "fmt"

// Status is the lifecycle state of the current request.
//
//	Idle -> CheckingLimits -> Predicting -> (Waiting ->)? Assigned
//
// CheckingLimits and every later step may fall back to Idle on failure.
type Status string

const (
	StatusIdle           Status = "IDLE"
	StatusCheckingLimits Status = "CHECKING_LIMITS"
	StatusPredicting     Status = "PREDICTING"
	StatusWaiting        Status = "WAITING"
	StatusAssigned       Status = "ASSIGNED"
)

// Busy reports whether a request is in flight. Submission boundaries reject
// new requests while Busy is true.
func (s Status) Busy() bool {
	return s != StatusIdle && s != StatusAssigned
}

// Severity classifies a console log record.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
	SeverityCommand Severity = "cmd"
)

// logTimeLayout is a 24h wall-clock time.
const logTimeLayout = "15:04:05"

// LogRecord is one console line produced by the orchestrator.
type LogRecord struct {
	Timestamp string   `json:"time"`
	Message   string   `json:"msg"`
	Severity  Severity `json:"type"`
}

// String renders the record the way the console shows it.
func (l LogRecord) String() string {
	if l.Severity == SeverityCommand {
		return fmt.Sprintf("[%s] $ %s", l.Timestamp, l.Message)
	}
	return fmt.Sprintf("[%s] %s", l.Timestamp, l.Message)
}
