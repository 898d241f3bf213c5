package vertex

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vertex.report/internal/monitoring"
	"github.com/banshee-data/vertex.report/internal/vertex/minimize"
)

// ClusterFit is the single-pass vertex fit of one cluster.
type ClusterFit struct {
	Label   int
	Tracks  []Line
	Vertex  r3.Vec
	Chi2    float64
	Status  string
	Skipped bool // smaller than MinClusterTracks; not fitted
}

// ClusterFitResult is the outcome of PerClusterVertexFitter.Fit.
type ClusterFitResult struct {
	Outcome  Outcome
	Vertex   r3.Vec  // zero unless converged
	Chi2     float64 // residual of the selected cluster
	Label    int     // selected cluster, -1 when none was accepted
	Clusters []ClusterFit
}

// OK reports whether a vertex was fitted.
func (r ClusterFitResult) OK() bool { return r.Outcome == OutcomeConverged }

// PerClusterVertexFitter fits one vertex per cluster without rejecting
// individual tracks, then keeps the best cluster if it passes the gate.
type PerClusterVertexFitter struct {
	params    FitterParams
	minimizer Minimizer
}

// NewPerClusterVertexFitter validates params and returns a fitter. A nil
// minimizer selects minimize.Default(). MinTracks is not used here;
// MinClusterTracks decides which clusters are fitted.
func NewPerClusterVertexFitter(params FitterParams, m Minimizer) (*PerClusterVertexFitter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = minimize.Default()
	}
	return &PerClusterVertexFitter{params: params, minimizer: m}, nil
}

// Params returns the fitter configuration.
func (f *PerClusterVertexFitter) Params() FitterParams { return f.params }

// Fit groups lines by label, minimizes Chi2 once per group from the
// initial guess, and selects the group with the smallest residual (lowest
// label on ties). The selected vertex is returned when its residual is at
// most Chi2Threshold; otherwise the outcome is OutcomeClusterFitRejected.
func (f *PerClusterVertexFitter) Fit(lines []Line, assignment ClusterAssignment) (ClusterFitResult, error) {
	if len(lines) == 0 {
		return ClusterFitResult{}, invalidInputf("no tracks to fit")
	}
	groups, err := assignment.Groups(lines)
	if err != nil {
		return ClusterFitResult{}, err
	}

	res := ClusterFitResult{Label: -1}
	best := math.Inf(1)
	bestIdx := -1
	for _, label := range slices.Sorted(maps.Keys(groups)) {
		tracks := groups[label]
		if len(tracks) < f.params.MinClusterTracks {
			res.Clusters = append(res.Clusters, ClusterFit{Label: label, Tracks: tracks, Skipped: true})
			continue
		}
		m, err := f.minimizer.Minimize(chi2Problem(tracks), f.params.InitialGuess)
		if err != nil {
			return ClusterFitResult{}, fmt.Errorf("fit cluster %d (%d tracks): %w", label, len(tracks), err)
		}
		fit := ClusterFit{
			Label:  label,
			Tracks: tracks,
			Vertex: m.X,
			Chi2:   Chi2(m.X, tracks),
			Status: m.Status,
		}
		res.Clusters = append(res.Clusters, fit)
		if fit.Chi2 < best {
			best = fit.Chi2
			bestIdx = len(res.Clusters) - 1
		}
	}

	if bestIdx < 0 || best > f.params.Chi2Threshold {
		monitoring.Debugf("cluster fitter: best residual %.4g mm above threshold %.4g mm", best, f.params.Chi2Threshold)
		res.Outcome = OutcomeClusterFitRejected
		return res, nil
	}

	sel := res.Clusters[bestIdx]
	res.Outcome = OutcomeConverged
	res.Vertex = sel.Vertex
	res.Chi2 = sel.Chi2
	res.Label = sel.Label
	return res, nil
}
