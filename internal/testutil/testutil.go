// Package testutil provides shared test assertions for geometry and
// reconstruction tests.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vertex.report/internal/monitoring"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta checks |got - want| <= tol.
func AssertInDelta(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("%s = %g, want %g ± %g", name, got, want, tol)
	}
}

// AssertVecNear checks that got lies within tol (mm) of want.
func AssertVecNear(t testing.TB, name string, got, want r3.Vec, tol float64) {
	t.Helper()
	if d := r3.Norm(r3.Sub(got, want)); math.IsNaN(d) || d > tol {
		t.Errorf("%s = %v, want within %g of %v (off by %g)", name, got, tol, want, d)
	}
}

// MuteLogs silences the monitoring logger for the duration of the test.
func MuteLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}
