// Package testutil holds helpers shared by the simulation tests.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// AssertVecNear fails the test if got and want are further than tol apart.
func AssertVecNear(t testing.TB, want, got r2.Vec, tol float64) {
	t.Helper()
	if d := math.Hypot(got.X-want.X, got.Y-want.Y); !(d <= tol) {
		t.Errorf("vector = (%g, %g), want (%g, %g) within %g (off by %g)", got.X, got.Y, want.X, want.Y, tol, d)
	}
}

// NewRand returns a deterministic PCG-backed generator for seed. It matches
// track.NewSource so tests reproduce binary runs.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
