package vertex

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Algorithm names used in reports and on the command line.
const (
	AlgorithmSSVF  = "ssvf"
	AlgorithmCSSVF = "c-ssvf"
)

// Reconstruction is the common result of a reconstruction pipeline.
type Reconstruction struct {
	Algorithm string
	Outcome   Outcome
	Vertex    r3.Vec  // zero unless converged
	Chi2      float64 // residual of the accepted fit
	Tracks    int     // tracks entering the fit stage

	// SSVF only.
	Couples []Couple
	Fit     *FitResult

	// C-SSVF only.
	Assignment *ClusterAssignment
	ClusterFit *ClusterFitResult
}

// OK reports whether a vertex was reconstructed.
func (r Reconstruction) OK() bool { return r.Outcome == OutcomeConverged }

// Reconstructor turns the tracks of one jet into a secondary vertex.
// Implementations are safe for concurrent use.
type Reconstructor interface {
	Name() string
	Reconstruct(lines []Line) (Reconstruction, error)
}

// SSVF pairs tracks with GreedyVertexFinder and fits the paired tracks with
// RobustVertexFitter.
type SSVF struct {
	finder *GreedyVertexFinder
	fitter *RobustVertexFitter
}

// NewSSVF builds the pair-then-fit pipeline. A nil minimizer selects the
// default.
func NewSSVF(fp FinderParams, tp FitterParams, m Minimizer) (*SSVF, error) {
	finder, err := NewGreedyVertexFinder(fp)
	if err != nil {
		return nil, err
	}
	fitter, err := NewRobustVertexFitter(tp, m)
	if err != nil {
		return nil, err
	}
	return &SSVF{finder: finder, fitter: fitter}, nil
}

// Name implements Reconstructor.
func (p *SSVF) Name() string { return AlgorithmSSVF }

// Reconstruct implements Reconstructor. When fewer than MinTracks tracks
// survive pairing the outcome is OutcomeFitNonConvergence.
func (p *SSVF) Reconstruct(lines []Line) (Reconstruction, error) {
	couples, err := p.finder.FindCouples(lines)
	if err != nil {
		return Reconstruction{}, err
	}
	tracks := Flatten(couples)
	fit, err := p.fitter.Fit(tracks)
	if err != nil {
		return Reconstruction{}, fmt.Errorf("%s: %w", AlgorithmSSVF, err)
	}
	return Reconstruction{
		Algorithm: AlgorithmSSVF,
		Outcome:   fit.Outcome,
		Vertex:    fit.Vertex,
		Chi2:      fit.Chi2,
		Tracks:    len(tracks),
		Couples:   couples,
		Fit:       &fit,
	}, nil
}

// CSSVF clusters tracks in feature space and keeps the best per-cluster fit.
type CSSVF struct {
	clusterer Clusterer
	fitter    *PerClusterVertexFitter
}

// NewCSSVF builds the cluster-then-fit pipeline around a FeatureClusterer.
// A nil minimizer selects the default.
func NewCSSVF(cp ClusterParams, tp FitterParams, m Minimizer) (*CSSVF, error) {
	clusterer, err := NewFeatureClusterer(cp)
	if err != nil {
		return nil, err
	}
	return NewCSSVFWithClusterer(clusterer, tp, m)
}

// NewCSSVFWithClusterer is NewCSSVF with a caller-supplied clusterer.
func NewCSSVFWithClusterer(c Clusterer, tp FitterParams, m Minimizer) (*CSSVF, error) {
	if c == nil {
		return nil, invalidInputf("nil clusterer")
	}
	fitter, err := NewPerClusterVertexFitter(tp, m)
	if err != nil {
		return nil, err
	}
	return &CSSVF{clusterer: c, fitter: fitter}, nil
}

// Name implements Reconstructor.
func (p *CSSVF) Name() string { return AlgorithmCSSVF }

// Reconstruct implements Reconstructor.
func (p *CSSVF) Reconstruct(lines []Line) (Reconstruction, error) {
	assignment, err := p.clusterer.Cluster(lines)
	if err != nil {
		return Reconstruction{}, err
	}
	fit, err := p.fitter.Fit(lines, assignment)
	if err != nil {
		return Reconstruction{}, fmt.Errorf("%s: %w", AlgorithmCSSVF, err)
	}
	return Reconstruction{
		Algorithm:  AlgorithmCSSVF,
		Outcome:    fit.Outcome,
		Vertex:     fit.Vertex,
		Chi2:       fit.Chi2,
		Tracks:     len(lines),
		Assignment: &assignment,
		ClusterFit: &fit,
	}, nil
}
