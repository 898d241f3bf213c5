package vertex

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Default reconstruction parameters, in millimetres where dimensioned.
const (
	DefaultDistanceThreshold = 0.006
	DefaultChi2Threshold     = 0.1
	DefaultMinTracks         = 2
	DefaultMinClusterTracks  = 1
	DefaultClusterCount      = 3
	DefaultClusterMaxIter    = 300
	DefaultClusterRestarts   = 10
)

// DefaultInitialGuess is the fit starting point: a small transverse offset
// and a 10 mm flight along z.
var DefaultInitialGuess = r3.Vec{X: 0.01, Y: 0.01, Z: 10.0}

// RejectPolicy decides what happens to the nearest candidate when the
// greedy finder rejects a pairing because it is beyond the threshold.
type RejectPolicy int

const (
	// KeepNearest returns the nearest candidate to the pool.
	KeepNearest RejectPolicy = iota
	// ConsumeNearest discards the nearest candidate along with the
	// unpaired track.
	ConsumeNearest
)

func (p RejectPolicy) String() string {
	switch p {
	case KeepNearest:
		return "keep_nearest"
	case ConsumeNearest:
		return "consume_nearest"
	default:
		return fmt.Sprintf("reject_policy(%d)", int(p))
	}
}

// ParseRejectPolicy maps a configuration string to a RejectPolicy. The
// empty string selects KeepNearest.
func ParseRejectPolicy(s string) (RejectPolicy, error) {
	switch s {
	case "", "keep_nearest":
		return KeepNearest, nil
	case "consume_nearest":
		return ConsumeNearest, nil
	default:
		return KeepNearest, invalidInputf("unknown reject policy %q", s)
	}
}

// FinderParams configures GreedyVertexFinder.
type FinderParams struct {
	DistanceThreshold float64 // pairing gate on LineDistance (mm)
	RejectPolicy      RejectPolicy
}

// DefaultFinderParams returns the production pairing parameters.
func DefaultFinderParams() FinderParams {
	return FinderParams{
		DistanceThreshold: DefaultDistanceThreshold,
		RejectPolicy:      KeepNearest,
	}
}

// Validate checks the finder parameters.
func (p FinderParams) Validate() error {
	if !(p.DistanceThreshold > 0) || math.IsInf(p.DistanceThreshold, 0) {
		return invalidInputf("distance threshold must be positive and finite, got %g", p.DistanceThreshold)
	}
	if p.RejectPolicy != KeepNearest && p.RejectPolicy != ConsumeNearest {
		return invalidInputf("unknown reject policy %d", int(p.RejectPolicy))
	}
	return nil
}

// FitterParams configures RobustVertexFitter and PerClusterVertexFitter.
type FitterParams struct {
	Chi2Threshold float64 // acceptance gate on the summed residual (mm)
	InitialGuess  r3.Vec  // minimizer starting point (mm)
	MinTracks     int     // the robust fitter fails below this many tracks

	// MinClusterTracks is the smallest cluster the per-cluster fitter
	// considers. At 1 a single-track cluster fits with zero residual.
	MinClusterTracks int
}

// DefaultFitterParams returns the production fitting parameters.
func DefaultFitterParams() FitterParams {
	return FitterParams{
		Chi2Threshold:    DefaultChi2Threshold,
		InitialGuess:     DefaultInitialGuess,
		MinTracks:        DefaultMinTracks,
		MinClusterTracks: DefaultMinClusterTracks,
	}
}

// Validate checks the fitter parameters.
func (p FitterParams) Validate() error {
	if !(p.Chi2Threshold > 0) || math.IsInf(p.Chi2Threshold, 0) {
		return invalidInputf("chi2 threshold must be positive and finite, got %g", p.Chi2Threshold)
	}
	if !finite(p.InitialGuess) {
		return invalidInputf("initial guess %v is not finite", p.InitialGuess)
	}
	if p.MinTracks < 2 {
		return invalidInputf("min tracks must be at least 2, got %d", p.MinTracks)
	}
	if p.MinClusterTracks < 1 {
		return invalidInputf("min cluster tracks must be at least 1, got %d", p.MinClusterTracks)
	}
	return nil
}

// ClusterParams configures FeatureClusterer.
type ClusterParams struct {
	K        int    // number of clusters
	MaxIter  int    // Lloyd iterations per restart
	Restarts int    // independent seedings; the lowest inertia wins
	Seed     uint64 // 0 seeds from the clock
}

// DefaultClusterParams returns the production clustering parameters.
func DefaultClusterParams() ClusterParams {
	return ClusterParams{
		K:        DefaultClusterCount,
		MaxIter:  DefaultClusterMaxIter,
		Restarts: DefaultClusterRestarts,
	}
}

// Validate checks the clustering parameters.
func (p ClusterParams) Validate() error {
	if p.K <= 0 {
		return invalidInputf("cluster count must be positive, got %d", p.K)
	}
	if p.MaxIter <= 0 {
		return invalidInputf("cluster max iterations must be positive, got %d", p.MaxIter)
	}
	if p.Restarts <= 0 {
		return invalidInputf("cluster restarts must be positive, got %d", p.Restarts)
	}
	return nil
}
