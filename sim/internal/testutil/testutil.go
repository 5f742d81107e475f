// Package testutil provides shared test infrastructure for the parking
// simulator: scripted random sources and float assertions used across sim/
// and its sub-packages.
package testutil

import (
	"fmt"
	"math"
	"testing"
)

// ScriptedRand replays fixed values in place of a random source, so tests can
// pin an exact forecast branch or clamp path. It panics when a script runs dry
// or an Intn value is out of range, which surfaces as a test failure.
type ScriptedRand struct {
	Floats []float64
	Ints   []int
}

// NewScriptedRand returns a source that yields floats from Float64 and ints from Intn, in order.
func NewScriptedRand(floats []float64, ints []int) *ScriptedRand {
	return &ScriptedRand{Floats: floats, Ints: ints}
}

// Float64 returns the next scripted float.
func (s *ScriptedRand) Float64() float64 {
	if len(s.Floats) == 0 {
		panic("ScriptedRand: Float64 script exhausted")
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

// Intn returns the next scripted int, which must lie in [0, n).
func (s *ScriptedRand) Intn(n int) int {
	if len(s.Ints) == 0 {
		panic("ScriptedRand: Intn script exhausted")
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("ScriptedRand: scripted Intn value %d outside [0, %d)", v, n))
	}
	return v
}

// Remaining reports how many scripted values are left unused.
func (s *ScriptedRand) Remaining() int {
	return len(s.Floats) + len(s.Ints)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertShareWithin checks that count/total is within tol of want.
func AssertShareWithin(t *testing.T, name string, count, total int, want, tol float64) {
	t.Helper()
	if total == 0 {
		t.Errorf("%s: no samples", name)
		return
	}
	got := float64(count) / float64(total)
	if math.Abs(got-want) > tol {
		t.Errorf("%s: share %.4f, want %.2f ± %.3f (%d/%d)", name, got, want, tol, count, total)
	}
}
