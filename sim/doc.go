// Package sim provides the core of the parking assignment simulator.
//
// # Reading Guide
//
// Start with these files to understand one request end to end:
//   - registry.go: hubs, parking candidates and destination lookup
//   - forecast.go: the simulated demand forecast (commit now or defer)
//   - assign.go: spot selection and walking-distance shaping
//   - session.go: the orchestrator state machine that ties the steps together
//
// # Architecture
//
// A Session runs one request at a time through
//
//	Idle -> CheckingLimits -> Predicting -> (Waiting ->)? Assigned
//
// Each suspension point goes through a Scheduler. RealtimeScheduler uses the
// wall clock; VirtualScheduler (event_heap.go) is a discrete-event clock used
// by tests and the bench command. Randomness comes from a RandPartition so
// forecast and assignment draws are seeded independently.
//
// Sub-packages:
//   - sim/trace/: decision trace recording and summaries
//   - sim/metrics/: Prometheus collector fed by Session listeners
//   - sim/publish/: assignment event publishers (log, Kafka)
package sim
