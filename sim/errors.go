package sim

import "errors"

var (
	// ErrEmptyQuery is returned when a request carries no destination text.
	ErrEmptyQuery = errors.New("destination query is empty")

	// ErrResolution means the query matched no registry key. The session
	// returns to Idle and the failure is visible in its log sequence.
	ErrResolution = errors.New("destination not found in registry")

	// ErrUnexpected wraps any other fault inside the pipeline. The session
	// performs a fail-safe reset to Idle with no result.
	ErrUnexpected = errors.New("unexpected pipeline failure")

	// ErrNoCandidates means a hub has no parking candidates to choose from.
	ErrNoCandidates = errors.New("hub has no parking candidates")

	// ErrCanceled marks a request superseded by a newer one or by teardown.
	ErrCanceled = errors.New("request canceled")

	// ErrBusy is returned by TrySubmit while a request is in flight.
	ErrBusy = errors.New("session busy")

	// ErrSessionClosed is returned by Submit after Close.
	ErrSessionClosed = errors.New("session closed")
)
