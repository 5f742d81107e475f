// Defines the Session orchestrator: the state machine that drives one
// parking request at a time from destination lookup to a locked spot.

package sim

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parkos/parkos/sim/trace"
)

const (
	DefaultFeasibilityDelay = 800 * time.Millisecond
	DefaultInferenceDelay   = 1500 * time.Millisecond
	DefaultTickPeriod       = 100 * time.Millisecond

	// MinMaxWaitSeconds and MaxMaxWaitSeconds bound a non-zero max-wait preference.
	MinMaxWaitSeconds = 1
	MaxMaxWaitSeconds = 8
)

// SessionConfig groups the orchestrator's timing and limit parameters.
type SessionConfig struct {
	FeasibilityDelay time.Duration // pause before the feasibility check passes
	InferenceDelay   time.Duration // pause for the simulated forecast model
	TickPeriod       time.Duration // period of the wait tick while deferred
	MaxWaitSeconds   float64       // default cap on deferred waits; 0 = no cap
}

// DefaultSessionConfig returns the demo timings with no wait cap.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		FeasibilityDelay: DefaultFeasibilityDelay,
		InferenceDelay:   DefaultInferenceDelay,
		TickPeriod:       DefaultTickPeriod,
	}
}

// Validate checks delays and the max-wait preference.
func (c SessionConfig) Validate() error {
	if c.FeasibilityDelay < 0 {
		return fmt.Errorf("feasibility delay must be non-negative, got %v", c.FeasibilityDelay)
	}
	if c.InferenceDelay < 0 {
		return fmt.Errorf("inference delay must be non-negative, got %v", c.InferenceDelay)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be positive, got %v", c.TickPeriod)
	}
	return ValidateMaxWait(c.MaxWaitSeconds)
}

// ValidateMaxWait accepts 0 (no cap) or a value in [1, 8] seconds.
func ValidateMaxWait(seconds float64) error {
	if seconds == 0 {
		return nil
	}
	if math.IsNaN(seconds) || seconds < MinMaxWaitSeconds || seconds > MaxMaxWaitSeconds {
		return fmt.Errorf("max wait must be 0 or within [%d, %d] seconds, got %v", MinMaxWaitSeconds, MaxMaxWaitSeconds, seconds)
	}
	return nil
}

// Query is one user submission.
type Query struct {
	Destination    string
	MaxWaitSeconds float64 // upper bound on a deferred wait; 0 = no cap
}

// Snapshot is a read-only copy of the session state after a step.
type Snapshot struct {
	RequestID          string            `json:"requestId"`
	Query              string            `json:"query"`
	HubKey             string            `json:"hubKey,omitempty"`
	Status             Status            `json:"status"`
	Logs               []LogRecord       `json:"logs"`
	Result             *AssignmentResult `json:"result"`
	Forecast           *ForecastOutcome  `json:"forecast,omitempty"`
	ElapsedWaitSeconds float64           `json:"elapsedWaitSeconds"`
	TargetWaitSeconds  float64           `json:"targetWaitSeconds"`
	MapFocus           Coordinates       `json:"mapFocus"`
	Error              string            `json:"error,omitempty"`
}

// Listener receives pipeline outcomes. Calls happen in step order while the
// session lock is held: implementations must not block or call back into
// the Session.
type Listener interface {
	OnForecast(requestID string, outcome ForecastOutcome)
	OnAssigned(requestID, hubKey string, result AssignmentResult, waitedSeconds float64)
	OnAborted(requestID string, err error)
}

// Session owns the state of one logical user session and runs requests
// through Idle -> CheckingLimits -> Predicting -> (Waiting ->)? Assigned.
//
// Only one request is live at a time. Every scheduled step carries the
// generation of the request that scheduled it; a newer Submit or Close bumps
// or retires the generation and stops the outstanding timer, so a callback
// that already fired is dropped before it can touch state.
type Session struct {
	mu        sync.Mutex
	cfg       SessionConfig
	registry  *Registry
	scheduler Scheduler
	rng       RandPartition
	trace     *trace.SessionTrace
	listeners []Listener
	observers []func(Snapshot)

	// Per-request state, reset by Submit.
	requestID  string
	query      string
	maxWait    float64
	hubKey     string
	hub        HubRecord
	status     Status
	logs       []LogRecord
	result     *AssignmentResult
	forecast   *ForecastOutcome
	mapFocus   Coordinates
	waitTicks  int
	waitTarget time.Duration
	err        error

	gen     uint64
	pending Timer
	settled chan struct{}
	closed  bool
}

// NewSession creates an idle session focused on the registry's first hub.
func NewSession(registry *Registry, scheduler Scheduler, rng RandPartition, cfg SessionConfig) (*Session, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, fmt.Errorf("session needs a non-empty registry")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("session needs a scheduler")
	}
	if rng == nil {
		return nil, fmt.Errorf("session needs a random source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	settled := make(chan struct{})
	close(settled)
	return &Session{
		cfg:       cfg,
		registry:  registry,
		scheduler: scheduler,
		rng:       rng,
		status:    StatusIdle,
		logs:      make([]LogRecord, 0),
		mapFocus:  registry.DefaultFocus(),
		settled:   settled,
	}, nil
}

// EnableTrace records decisions into st from the next step on.
func (s *Session) EnableTrace(st *trace.SessionTrace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = st
}

// AddListener registers a pipeline outcome listener.
func (s *Session) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Observe registers fn to receive a snapshot after every step, in order.
// fn runs with the session lock held and must not call back into the Session.
func (s *Session) Observe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Config returns the session configuration.
func (s *Session) Config() SessionConfig {
	return s.cfg
}

// Registry returns the registry the session resolves against.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Submit starts a request for destination with the session's default wait cap.
func (s *Session) Submit(destination string) (string, error) {
	return s.SubmitQuery(Query{Destination: destination, MaxWaitSeconds: s.cfg.MaxWaitSeconds})
}

// SubmitQuery starts a request, canceling any request still in flight.
// It returns the new request ID. A failed lookup is reported both through
// the log sequence and as an ErrResolution error.
func (s *Session) SubmitQuery(q Query) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked(q)
}

// TrySubmit is SubmitQuery for submission boundaries: it refuses with ErrBusy
// while a request is in flight instead of canceling it.
func (s *Session) TrySubmit(q Query) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Busy() {
		return "", ErrBusy
	}
	return s.submitLocked(q)
}

func (s *Session) submitLocked(q Query) (string, error) {
	if s.closed {
		return "", ErrSessionClosed
	}
	if q.Destination == "" {
		return "", ErrEmptyQuery
	}
	if err := ValidateMaxWait(q.MaxWaitSeconds); err != nil {
		return "", err
	}

	s.cancelLocked()
	s.gen++
	gen := s.gen

	s.requestID = uuid.NewString()
	s.query = q.Destination
	s.maxWait = q.MaxWaitSeconds
	s.hubKey = ""
	s.hub = HubRecord{}
	s.logs = make([]LogRecord, 0, 12)
	s.result = nil
	s.forecast = nil
	s.waitTicks = 0
	s.waitTarget = 0
	s.err = nil
	s.settled = make(chan struct{})

	s.setStatusLocked(StatusCheckingLimits)
	s.logLocked(SeverityCommand, ">>> SYSTEM INIT: DESTINATION [%s]", q.Destination)
	s.notifyLocked()

	s.stepLocked(gen, func() error { return s.resolveLocked(gen) })
	return s.requestID, s.err
}

// resolveLocked looks the destination up and schedules the feasibility check.
func (s *Session) resolveLocked(gen uint64) error {
	key, hub, ok := s.registry.Resolve(s.query)
	if s.trace != nil {
		s.trace.RecordResolution(trace.ResolutionRecord{
			RequestID: s.requestID,
			Clock:     s.scheduler.Now(),
			Query:     s.query,
			HubKey:    key,
			Matched:   ok,
		})
	}
	if !ok {
		s.logLocked(SeverityError, "[ERR] INVALID LOCATION: %s. Try %s", s.query, locationHint(s.registry))
		s.err = fmt.Errorf("%w: %q", ErrResolution, s.query)
		s.settleLocked(StatusIdle)
		s.emitAbortedLocked(s.err)
		return nil
	}

	s.hubKey = key
	s.hub = hub
	s.mapFocus = hub.Coordinates()
	s.logLocked(SeveritySuccess, "[GEO] COORDINATES LOCKED: %s", key)
	s.scheduleLocked(gen, s.cfg.FeasibilityDelay, s.afterFeasibilityLocked)
	return nil
}

func (s *Session) afterFeasibilityLocked(gen uint64) error {
	s.logLocked(SeverityInfo, "[SYS] FEASIBILITY CHECK: PASSED")
	s.setStatusLocked(StatusPredicting)
	s.logLocked(SeverityInfo, "[AI] DEMAND MODEL INFERENCE...")
	s.scheduleLocked(gen, s.cfg.InferenceDelay, s.afterInferenceLocked)
	return nil
}

func (s *Session) afterInferenceLocked(gen uint64) error {
	outcome := Simulate(s.rng.Source(SubsystemForecast))
	s.forecast = &outcome
	s.logLocked(SeverityWarn, "[FORECAST] %s", outcome.Label)

	wait := outcome.WaitSeconds
	capped := false
	if outcome.ShouldDefer && s.maxWait > 0 && wait > s.maxWait {
		wait = s.maxWait
		capped = true
	}
	if s.trace != nil {
		s.trace.RecordForecast(trace.ForecastRecord{
			RequestID:      s.requestID,
			Clock:          s.scheduler.Now(),
			Classification: string(outcome.Classification),
			Deferred:       outcome.ShouldDefer,
			DrawnWait:      outcome.WaitSeconds,
			EffectiveWait:  wait,
		})
	}
	for _, l := range s.listeners {
		l.OnForecast(s.requestID, outcome)
	}

	if !outcome.ShouldDefer {
		return s.assignLocked(0)
	}

	s.waitTarget = time.Duration(wait * float64(time.Second))
	s.setStatusLocked(StatusWaiting)
	s.logLocked(SeverityWarn, "[DQN] STRATEGY: DEFER (Pooling)")
	s.logLocked(SeverityInfo, "[REASON] %s", outcome.ReasonText)
	if capped {
		s.logLocked(SeverityInfo, "[LIMIT] WAIT CAPPED AT %.1fs", wait)
	}
	s.scheduleLocked(gen, s.cfg.TickPeriod, s.onWaitTickLocked)
	return nil
}

// onWaitTickLocked advances the deferred wait by one period and assigns once
// the target is reached. Elapsed time is counted in whole ticks so it never
// drifts from the period.
func (s *Session) onWaitTickLocked(gen uint64) error {
	s.waitTicks++
	waited := s.elapsedWaitLocked()
	if waited < s.waitTarget {
		s.scheduleLocked(gen, s.cfg.TickPeriod, s.onWaitTickLocked)
		return nil
	}
	s.logLocked(SeveritySuccess, "[EVENT] SPOT RELEASED (Wait: %.1fs)", waited.Seconds())
	return s.assignLocked(waited.Seconds())
}

func (s *Session) assignLocked(waitedSeconds float64) error {
	result, err := Select(s.hub, s.rng.Source(SubsystemAssignment))
	if err != nil {
		return fmt.Errorf("selecting spot at %q: %w", s.hubKey, err)
	}
	s.result = &result
	s.logLocked(SeveritySuccess, "[ASSIGN] ASSIGNMENT LOCKED: %s", result.SpotName)
	if s.trace != nil {
		s.trace.RecordAssignment(trace.AssignmentRecord{
			RequestID:      s.requestID,
			Clock:          s.scheduler.Now(),
			HubKey:         s.hubKey,
			SpotName:       result.SpotName,
			Category:       string(result.Category),
			DistanceMeters: result.FinalDistanceMeters,
			WaitedSeconds:  waitedSeconds,
		})
	}
	for _, l := range s.listeners {
		l.OnAssigned(s.requestID, s.hubKey, result, waitedSeconds)
	}
	s.settleLocked(StatusAssigned)
	return nil
}

// scheduleLocked arms the single outstanding suspension point for request gen.
func (s *Session) scheduleLocked(gen uint64, d time.Duration, step func(uint64) error) {
	s.pending = s.scheduler.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stepLocked(gen, func() error { return step(gen) })
	})
}

// stepLocked runs fn on behalf of request gen. Stale generations are dropped.
// Errors and panics take the fail-safe path; observers see the result either way.
func (s *Session) stepLocked(gen uint64, fn func() error) {
	if gen != s.gen || s.closed {
		return
	}
	s.pending = nil
	defer s.notifyLocked()
	defer func() {
		if r := recover(); r != nil {
			s.failLocked(fmt.Errorf("%w: panic: %v", ErrUnexpected, r))
		}
	}()
	if err := fn(); err != nil {
		s.failLocked(fmt.Errorf("%w: %w", ErrUnexpected, err))
	}
}

// failLocked resets the request to Idle with no result.
func (s *Session) failLocked(err error) {
	s.stopPendingLocked()
	logrus.Errorf("[session %s] %v", shortID(s.requestID), err)
	s.logLocked(SeverityError, "[CRITICAL] SYSTEM FAILURE")
	s.result = nil
	s.forecast = nil
	s.waitTicks = 0
	s.waitTarget = 0
	s.err = err
	if s.trace != nil {
		s.trace.RecordFailure(trace.FailureRecord{
			RequestID: s.requestID,
			Clock:     s.scheduler.Now(),
			Reason:    err.Error(),
		})
	}
	s.settleLocked(StatusIdle)
	s.emitAbortedLocked(err)
}

// cancelLocked releases the in-flight request, if any, before a restart or teardown.
func (s *Session) cancelLocked() {
	s.stopPendingLocked()
	if s.status.Busy() {
		logrus.Debugf("[session %s] canceled in %s", shortID(s.requestID), s.status)
		if s.trace != nil {
			s.trace.RecordFailure(trace.FailureRecord{
				RequestID: s.requestID,
				Clock:     s.scheduler.Now(),
				Reason:    ErrCanceled.Error(),
				Canceled:  true,
			})
		}
		s.emitAbortedLocked(ErrCanceled)
	}
	s.closeSettledLocked()
}

func (s *Session) stopPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// Close tears the session down: the outstanding timer is stopped, an
// in-flight request is abandoned, and later submits fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	wasBusy := s.status.Busy()
	s.cancelLocked()
	if wasBusy {
		s.result = nil
		s.setStatusLocked(StatusIdle)
	}
	s.closed = true
	s.gen++
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	return s.Status().Busy()
}

// Settled returns a channel closed once the current request reaches a
// terminal state (Assigned or back to Idle), is superseded, or the session
// closes. Before the first submit the channel is already closed.
func (s *Session) Settled() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

// TraceSummary summarizes the decisions recorded so far.
func (s *Session) TraceSummary() *trace.TraceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return trace.Summarize(s.trace)
}

func (s *Session) snapshotLocked() Snapshot {
	logs := make([]LogRecord, len(s.logs))
	copy(logs, s.logs)
	snap := Snapshot{
		RequestID:          s.requestID,
		Query:              s.query,
		HubKey:             s.hubKey,
		Status:             s.status,
		Logs:               logs,
		ElapsedWaitSeconds: s.elapsedWaitLocked().Seconds(),
		TargetWaitSeconds:  s.waitTarget.Seconds(),
		MapFocus:           s.mapFocus,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	if s.forecast != nil {
		f := *s.forecast
		snap.Forecast = &f
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

func (s *Session) notifyLocked() {
	if len(s.observers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, fn := range s.observers {
		fn(snap)
	}
}

func (s *Session) elapsedWaitLocked() time.Duration {
	return time.Duration(s.waitTicks) * s.cfg.TickPeriod
}

func (s *Session) setStatusLocked(to Status) {
	if s.status == to {
		return
	}
	logrus.Debugf("[session %s] %s -> %s", shortID(s.requestID), s.status, to)
	s.status = to
}

func (s *Session) settleLocked(to Status) {
	s.setStatusLocked(to)
	s.closeSettledLocked()
}

func (s *Session) closeSettledLocked() {
	select {
	case <-s.settled:
	default:
		close(s.settled)
	}
}

func (s *Session) logLocked(sev Severity, format string, args ...any) {
	s.logs = append(s.logs, LogRecord{
		Timestamp: s.scheduler.Now().Format(logTimeLayout),
		Message:   fmt.Sprintf(format, args...),
		Severity:  sev,
	})
}

func (s *Session) emitAbortedLocked(err error) {
	for _, l := range s.listeners {
		l.OnAborted(s.requestID, err)
	}
}

// locationHint lists the preset destinations as "'a', 'b' or 'c'".
func locationHint(r *Registry) string {
	keys := r.Presets()
	if len(keys) == 0 {
		keys = []string{r.hubs[0].Key}
	}
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "'" + k + "'"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
