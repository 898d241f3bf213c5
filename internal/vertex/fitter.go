package vertex

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vertex.report/internal/monitoring"
	"github.com/banshee-data/vertex.report/internal/vertex/minimize"
)

// FitIteration records one minimization round of the robust fitter.
type FitIteration struct {
	Tracks   int     // tracks in the candidate set for this round
	Vertex   r3.Vec  // minimizer output
	Chi2     float64 // summed residual at Vertex
	Status   string  // minimizer termination status
	Rejected int     // index of the track dropped after this round, or -1
}

// FitResult is the outcome of RobustVertexFitter.Fit.
type FitResult struct {
	Outcome    Outcome
	Vertex     r3.Vec  // zero unless converged
	Chi2       float64 // summed residual of the accepted vertex
	Tracks     []Line  // surviving tracks; nil unless converged
	Rejected   []Line  // tracks dropped, in rejection order
	Iterations []FitIteration
}

// OK reports whether a vertex was fitted.
func (r FitResult) OK() bool { return r.Outcome == OutcomeConverged }

// RobustVertexFitter fits one vertex to a track set, dropping the worst
// track until the summed residual falls below the threshold.
type RobustVertexFitter struct {
	params    FitterParams
	minimizer Minimizer
}

// NewRobustVertexFitter validates params and returns a fitter. A nil
// minimizer selects minimize.Default().
func NewRobustVertexFitter(params FitterParams, m Minimizer) (*RobustVertexFitter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = minimize.Default()
	}
	return &RobustVertexFitter{params: params, minimizer: m}, nil
}

// Params returns the fitter configuration.
func (f *RobustVertexFitter) Params() FitterParams { return f.params }

// Fit minimizes Chi2 from the initial guess, accepts the vertex when the
// summed residual is below Chi2Threshold, and otherwise drops the track with
// the largest residual (first on ties) and refits. When fewer than
// MinTracks remain the result is OutcomeFitNonConvergence with no vertex.
// The input slice is not modified.
func (f *RobustVertexFitter) Fit(lines []Line) (FitResult, error) {
	selected := slices.Clone(lines)
	var res FitResult

	for len(selected) >= f.params.MinTracks {
		m, err := f.minimizer.Minimize(chi2Problem(selected), f.params.InitialGuess)
		if err != nil {
			return FitResult{}, fmt.Errorf("fit vertex to %d tracks: %w", len(selected), err)
		}

		residuals := Residuals(m.X, selected)
		total := floats.Sum(residuals)
		iter := FitIteration{
			Tracks:   len(selected),
			Vertex:   m.X,
			Chi2:     total,
			Status:   m.Status,
			Rejected: -1,
		}

		if total < f.params.Chi2Threshold {
			res.Iterations = append(res.Iterations, iter)
			res.Outcome = OutcomeConverged
			res.Vertex = m.X
			res.Chi2 = total
			res.Tracks = selected
			return res, nil
		}

		worst := floats.MaxIdx(residuals)
		iter.Rejected = worst
		res.Iterations = append(res.Iterations, iter)
		res.Rejected = append(res.Rejected, selected[worst])
		monitoring.Debugf("fitter: chi2 %.4g mm with %d tracks, rejecting track %d (residual %.4g mm)",
			total, len(selected), worst, residuals[worst])
		selected = slices.Delete(selected, worst, worst+1)
	}

	monitoring.Debugf("fitter: no vertex, %d tracks left (min %d)", len(selected), f.params.MinTracks)
	res.Outcome = OutcomeFitNonConvergence
	return res, nil
}
