package vertex

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vertex.report/internal/vertex/minimize"
)

// Minimizer finds a local minimum of a three-dimensional objective.
// Implementations must be reentrant; *minimize.Gonum is the default.
type Minimizer interface {
	Minimize(p minimize.Problem, x0 r3.Vec) (minimize.Result, error)
}

// Chi2 returns the sum of point-to-line distances from v to lines. It is
// an L1-style residual, not a normalized chi-square.
func Chi2(v r3.Vec, lines []Line) float64 {
	return floats.Sum(Residuals(v, lines))
}

// Residuals returns the distance from v to each line.
func Residuals(v r3.Vec, lines []Line) []float64 {
	r := make([]float64, len(lines))
	for i, l := range lines {
		r[i] = l.PointDistance(v)
	}
	return r
}

// chi2Gradient is the gradient of Chi2: the sum of unit vectors pointing
// from each line's foot of perpendicular towards v. Lines passing through
// v contribute nothing.
func chi2Gradient(v r3.Vec, lines []Line) r3.Vec {
	var g r3.Vec
	for _, l := range lines {
		tStar := r3.Dot(r3.Sub(v, l.origin), l.direction)
		off := r3.Sub(v, l.Evaluate(tStar))
		n := r3.Norm(off)
		if n < 1e-15 {
			continue
		}
		g = r3.Add(g, r3.Scale(1/n, off))
	}
	return g
}

func chi2Problem(lines []Line) minimize.Problem {
	return minimize.Problem{
		Func: func(v r3.Vec) float64 { return Chi2(v, lines) },
		Grad: func(v r3.Vec) r3.Vec { return chi2Gradient(v, lines) },
	}
}
