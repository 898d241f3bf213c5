package vertex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// UnitTolerance is the allowed deviation of ‖direction‖ from 1.
	UnitTolerance = 1e-6
	// ParallelEpsilon is the sin²(α) below which two lines are treated as
	// parallel by LineDistance.
	ParallelEpsilon = 1e-12
)

// Line is a track modelled as an infinite straight line in millimetres.
// The zero value is not usable; construct with NewLine.
type Line struct {
	origin          r3.Vec
	direction       r3.Vec
	impactParameter float64
}

// NewLine returns the line through origin along direction. The direction
// must already be a unit vector; it is not re-normalized.
func NewLine(origin, direction r3.Vec) (Line, error) {
	if !finite(origin) || !finite(direction) {
		return Line{}, invalidInputf("non-finite line origin %v or direction %v", origin, direction)
	}
	if n := r3.Norm(direction); math.Abs(n-1) > UnitTolerance {
		return Line{}, invalidInputf("direction %v has norm %g, want 1", direction, n)
	}
	l := Line{origin: origin, direction: direction}
	l.impactParameter = l.PointDistance(r3.Vec{})
	return l, nil
}

// MustLine is like NewLine but panics on invalid input. Intended for
// fixtures and tests.
func MustLine(origin, direction r3.Vec) Line {
	l, err := NewLine(origin, direction)
	if err != nil {
		panic(err)
	}
	return l
}

// Origin returns the reference point of the line.
func (l Line) Origin() r3.Vec { return l.origin }

// Direction returns the unit direction of the line.
func (l Line) Direction() r3.Vec { return l.direction }

// ImpactParameter returns the distance from the line to the coordinate origin.
func (l Line) ImpactParameter() float64 { return l.impactParameter }

// Evaluate returns origin + t·direction.
func (l Line) Evaluate(t float64) r3.Vec {
	return r3.Add(l.origin, r3.Scale(t, l.direction))
}

// PointDistance returns the minimum distance from the line to p.
//
// The plane through p orthogonal to the direction is ⟨direction, x⟩ + d = 0
// with d = -⟨direction, p⟩; the line crosses it at t* = -(⟨origin, direction⟩ + d).
func (l Line) PointDistance(p r3.Vec) float64 {
	d := -r3.Dot(l.direction, p)
	tStar := -(r3.Dot(l.origin, l.direction) + d)
	return r3.Norm(r3.Sub(p, l.Evaluate(tStar)))
}

// ClosestApproach returns the parameters t on l and s on other of the
// closest pair of points. ok is false when the lines are parallel within
// ParallelEpsilon, in which case t and s are zero.
func (l Line) ClosestApproach(other Line) (t, s float64, ok bool) {
	cosAlpha := clip(r3.Dot(l.direction, other.direction), -1, 1)
	// sin²α from the cross product keeps precision for nearly parallel
	// lines where 1-cos²α cancels.
	sin2Alpha := r3.Norm2(r3.Cross(l.direction, other.direction))
	if sin2Alpha < ParallelEpsilon {
		return 0, 0, false
	}
	dp0 := r3.Sub(other.origin, l.origin)
	dpU := r3.Dot(dp0, l.direction)
	dpV := r3.Dot(dp0, other.direction)
	t = (dpU - cosAlpha*dpV) / sin2Alpha
	s = cosAlpha*t - dpV
	return t, s, true
}

// LineDistance returns the minimum distance between l and other. Parallel
// and antiparallel lines fall back to the distance from l's origin to
// other, which does not depend on where along the shared direction the
// origins sit.
func (l Line) LineDistance(other Line) float64 {
	t, s, ok := l.ClosestApproach(other)
	if !ok {
		return other.PointDistance(l.origin)
	}
	return r3.Norm(r3.Sub(l.Evaluate(t), other.Evaluate(s)))
}

// Angle returns the angle in radians between the two directions.
func (l Line) Angle(other Line) float64 {
	return math.Acos(clip(r3.Dot(l.direction, other.direction), -1, 1))
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
