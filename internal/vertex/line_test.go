package vertex

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	xAxis = r3.Vec{X: 1}
	yAxis = r3.Vec{Y: 1}
	zAxis = r3.Vec{Z: 1}
)

// polar returns the unit vector at polar angle theta from +z and azimuth phi.
func polar(theta, phi float64) r3.Vec {
	return r3.Vec{
		X: math.Sin(theta) * math.Cos(phi),
		Y: math.Sin(theta) * math.Sin(phi),
		Z: math.Cos(theta),
	}
}

// through returns a line passing through v at the given angles, with its
// origin placed 10 mm upstream of v.
func through(v r3.Vec, theta, phi float64) Line {
	dir := polar(theta, phi)
	return MustLine(r3.Sub(v, r3.Scale(10, dir)), dir)
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestNewLine(t *testing.T) {
	l, err := NewLine(r3.Vec{X: 1}, zAxis)
	if err != nil {
		t.Fatalf("NewLine: %v", err)
	}
	if l.Origin() != (r3.Vec{X: 1}) || l.Direction() != zAxis {
		t.Errorf("unexpected line %+v", l)
	}
	if !approx(l.ImpactParameter(), 1, 1e-12) {
		t.Errorf("expected impact parameter 1, got %v", l.ImpactParameter())
	}

	bad := []struct {
		name   string
		origin r3.Vec
		dir    r3.Vec
	}{
		{"zero direction", r3.Vec{}, r3.Vec{}},
		{"long direction", r3.Vec{}, r3.Vec{Z: 2}},
		{"short direction", r3.Vec{}, r3.Vec{X: 0.5, Y: 0.5}},
		{"nan origin", r3.Vec{X: math.NaN()}, zAxis},
		{"inf direction", r3.Vec{}, r3.Vec{Z: math.Inf(1)}},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewLine(tc.origin, tc.dir); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestMustLinePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-unit direction")
		}
	}()
	MustLine(r3.Vec{}, r3.Vec{X: 3})
}

func TestPointDistance(t *testing.T) {
	l := MustLine(r3.Vec{}, zAxis)
	tests := []struct {
		p    r3.Vec
		want float64
	}{
		{r3.Vec{X: 3, Y: 4}, 5},
		{r3.Vec{Z: 7}, 0},
		{r3.Vec{X: 3, Y: 4, Z: -12}, 5},
	}
	for _, tc := range tests {
		if got := l.PointDistance(tc.p); !approx(got, tc.want, 1e-12) {
			t.Errorf("PointDistance(%v): expected %v, got %v", tc.p, tc.want, got)
		}
	}

	// Every point on the line is at distance zero.
	skew := through(r3.Vec{X: 0.3, Y: -0.2, Z: 8}, 0.3, 1.1)
	for _, tt := range []float64{-5, 0, 2.5, 40} {
		if d := skew.PointDistance(skew.Evaluate(tt)); d > 1e-12 {
			t.Errorf("point at t=%v: expected 0, got %v", tt, d)
		}
	}
}

func TestLineDistance(t *testing.T) {
	a := MustLine(r3.Vec{}, xAxis)
	b := MustLine(r3.Vec{X: 3, Y: -1, Z: 2}, yAxis)

	if d := a.LineDistance(b); !approx(d, 2, 1e-12) {
		t.Errorf("skew lines: expected 2, got %v", d)
	}
	if d1, d2 := a.LineDistance(b), b.LineDistance(a); !approx(d1, d2, 1e-12) {
		t.Errorf("expected symmetric distance, got %v and %v", d1, d2)
	}
	if d := b.LineDistance(b); d > 1e-12 {
		t.Errorf("identical lines: expected 0, got %v", d)
	}

	p := r3.Vec{X: 1, Y: 1, Z: 1}
	c := MustLine(p, xAxis)
	e := MustLine(r3.Sub(p, r3.Scale(4, r3.Unit(r3.Vec{Y: 1, Z: 1}))), r3.Unit(r3.Vec{Y: 1, Z: 1}))
	if d := c.LineDistance(e); d > 1e-12 {
		t.Errorf("intersecting lines: expected 0, got %v", d)
	}
}

func TestLineDistance_Parallel(t *testing.T) {
	base := MustLine(r3.Vec{}, zAxis)
	near := MustLine(r3.Vec{X: 0.001}, zAxis)
	shifted := MustLine(r3.Vec{X: 0.001, Z: 50}, zAxis)
	anti := MustLine(r3.Vec{X: 0.001, Z: -7}, r3.Vec{Z: -1})

	for name, other := range map[string]Line{"near": near, "shifted": shifted, "antiparallel": anti} {
		if d := base.LineDistance(other); !approx(d, 0.001, 1e-12) {
			t.Errorf("%s: expected 0.001, got %v", name, d)
		}
		if d := other.LineDistance(base); !approx(d, 0.001, 1e-12) {
			t.Errorf("%s reversed: expected 0.001, got %v", name, d)
		}
	}
	if _, _, ok := base.ClosestApproach(near); ok {
		t.Error("expected parallel lines to report ok=false")
	}
}

func TestClosestApproach(t *testing.T) {
	a := MustLine(r3.Vec{}, xAxis)
	b := MustLine(r3.Vec{X: 3, Y: -1, Z: 2}, yAxis)

	ta, sb, ok := a.ClosestApproach(b)
	if !ok {
		t.Fatal("expected skew lines to have a closest approach")
	}
	if !approx(ta, 3, 1e-12) || !approx(sb, 1, 1e-12) {
		t.Errorf("expected (t, s) = (3, 1), got (%v, %v)", ta, sb)
	}
	if got := a.Evaluate(ta); r3.Norm(r3.Sub(got, r3.Vec{X: 3})) > 1e-12 {
		t.Errorf("expected foot (3,0,0), got %v", got)
	}
}

func TestAngle(t *testing.T) {
	a := MustLine(r3.Vec{}, xAxis)
	b := MustLine(r3.Vec{Z: 1}, yAxis)
	if got := a.Angle(b); !approx(got, math.Pi/2, 1e-12) {
		t.Errorf("expected π/2, got %v", got)
	}
	if got := a.Angle(a); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}
