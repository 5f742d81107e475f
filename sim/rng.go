package sim

import (
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible session run.
// Two sessions with the same SimulationKey, registry and query sequence
// MUST produce identical forecasts and assignments.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemForecast is the RNG subsystem for demand forecast draws.
	SubsystemForecast = "forecast"

	// SubsystemAssignment is the RNG subsystem for spot selection and distance shaping.
	SubsystemAssignment = "assignment"
)

// RandSource is the subset of *rand.Rand the forecast and assignment steps draw from.
// Tests substitute scripted sources to pin exact branches.
type RandSource interface {
	Float64() float64
	Intn(n int) int
}

// RandPartition hands out the random source for a named subsystem.
type RandPartition interface {
	Source(subsystem string) RandSource
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
// Drawing from one subsystem never shifts the sequence of another, so adding
// a log line or an extra forecast draw does not perturb spot selection.
//
// Thread-safety: NOT thread-safe. Callers serialize access (Session holds its lock).
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Source implements RandPartition.
func (p *PartitionedRNG) Source(name string) RandSource {
	return p.ForSubsystem(name)
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
