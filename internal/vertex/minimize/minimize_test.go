package minimize

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func quadratic(target r3.Vec) Problem {
	return Problem{
		Func: func(x r3.Vec) float64 { return r3.Norm2(r3.Sub(x, target)) },
		Grad: func(x r3.Vec) r3.Vec { return r3.Scale(2, r3.Sub(x, target)) },
	}
}

func TestGonum_Methods(t *testing.T) {
	target := r3.Vec{X: 1, Y: -2, Z: 3}
	for _, method := range []Method{NelderMead, BFGS} {
		t.Run(string(method), func(t *testing.T) {
			s := DefaultSettings()
			s.Method = method
			m, err := New(s)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			res, err := m.Minimize(quadratic(target), r3.Vec{})
			if err != nil {
				t.Fatalf("Minimize: %v", err)
			}
			if d := r3.Norm(r3.Sub(res.X, target)); d > 1e-4 {
				t.Errorf("expected minimum near %v, got %v (d=%g)", target, res.X, d)
			}
			if res.Status == "" {
				t.Error("expected a termination status")
			}
		})
	}
}

func TestGonum_GeometricMedian(t *testing.T) {
	// The geometric median of an equilateral triangle is its centroid.
	pts := []r3.Vec{{X: 1}, {X: -0.5, Y: math.Sqrt(3) / 2}, {X: -0.5, Y: -math.Sqrt(3) / 2}}
	p := Problem{Func: func(x r3.Vec) float64 {
		var sum float64
		for _, q := range pts {
			sum += r3.Norm(r3.Sub(x, q))
		}
		return sum
	}}
	res, err := Default().Minimize(p, r3.Vec{X: 0.3, Y: 0.2, Z: 0.1})
	if err != nil {
		t.Fatalf("Minimize: %v", err)
	}
	if r3.Norm(res.X) > 1e-3 {
		t.Errorf("expected geometric median at origin, got %v", res.X)
	}
}

func TestGonum_IterationCapKeepsBestLocation(t *testing.T) {
	m, err := New(Settings{Method: NelderMead, MaxIterations: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := m.Minimize(quadratic(r3.Vec{X: 5}), r3.Vec{})
	if err != nil {
		t.Fatalf("expected cap to be tolerated, got %v", err)
	}
	if res.F > 25 {
		t.Errorf("expected best value no worse than the start (25), got %g", res.F)
	}
}

func TestGonum_Errors(t *testing.T) {
	if _, err := Default().Minimize(Problem{}, r3.Vec{}); !errors.Is(err, ErrNilObjective) {
		t.Errorf("expected ErrNilObjective, got %v", err)
	}

	m, err := New(Settings{Method: BFGS})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := Problem{Func: func(x r3.Vec) float64 { return x.X * x.X }}
	if _, err := m.Minimize(p, r3.Vec{}); !errors.Is(err, ErrMissingGradient) {
		t.Errorf("expected ErrMissingGradient, got %v", err)
	}

	if _, err := New(Settings{Method: "simplex"}); err == nil {
		t.Error("expected unknown method to be rejected")
	}
	if _, err := New(Settings{Method: NelderMead, MaxIterations: -1}); err == nil {
		t.Error("expected negative cap to be rejected")
	}
}
