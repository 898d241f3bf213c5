package vertex

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/banshee-data/vertex.report/internal/vertex/kmeans"
)

// ClusterAssignment maps each track, by input index, to an opaque cluster
// label in [0, K). Label values carry no meaning beyond grouping.
type ClusterAssignment struct {
	Labels    []int
	K         int
	Centroids [][2]float64 // feature-space centroid per label, when known
}

// Counts returns the number of tracks per label.
func (a ClusterAssignment) Counts() map[int]int {
	counts := make(map[int]int, a.K)
	for _, l := range a.Labels {
		counts[l]++
	}
	return counts
}

// Groups partitions lines by label. lines must be the slice the assignment
// was computed for.
func (a ClusterAssignment) Groups(lines []Line) (map[int][]Line, error) {
	if len(lines) != len(a.Labels) {
		return nil, invalidInputf("%d tracks but %d cluster labels", len(lines), len(a.Labels))
	}
	groups := make(map[int][]Line, a.K)
	for i, l := range lines {
		groups[a.Labels[i]] = append(groups[a.Labels[i]], l)
	}
	return groups, nil
}

// Clusterer partitions tracks into groups.
type Clusterer interface {
	Cluster(lines []Line) (ClusterAssignment, error)
}

// FeatureClusterer groups tracks with k-means in the feature plane
// (|impact parameter| mm, direction z). The features are not rescaled, so
// the impact parameter dominates the distance.
type FeatureClusterer struct {
	params ClusterParams
}

// NewFeatureClusterer validates params and returns a clusterer.
func NewFeatureClusterer(params ClusterParams) (*FeatureClusterer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &FeatureClusterer{params: params}, nil
}

// Params returns the clusterer configuration.
func (c *FeatureClusterer) Params() ClusterParams { return c.params }

// Features returns the clustering feature vector of each line.
func Features(lines []Line) [][]float64 {
	out := make([][]float64, len(lines))
	for i, l := range lines {
		out[i] = []float64{math.Abs(l.ImpactParameter()), l.Direction().Z}
	}
	return out
}

// Cluster assigns every line exactly one label in [0, K). With fewer lines
// than K each line forms its own cluster. A non-zero Seed makes the result
// reproducible; with Seed 0 each call draws a fresh seed.
func (c *FeatureClusterer) Cluster(lines []Line) (ClusterAssignment, error) {
	if len(lines) == 0 {
		return ClusterAssignment{}, invalidInputf("no tracks to cluster")
	}

	features := Features(lines)
	if len(lines) < c.params.K {
		a := ClusterAssignment{Labels: make([]int, len(lines)), K: c.params.K}
		for i := range lines {
			a.Labels[i] = i
			a.Centroids = append(a.Centroids, [2]float64{features[i][0], features[i][1]})
		}
		return a, nil
	}

	res, err := kmeans.Fit(features, c.params.K, c.params.MaxIter, c.params.Restarts, c.rng())
	if err != nil {
		if errors.Is(err, kmeans.ErrTooFewPoints) {
			return ClusterAssignment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return ClusterAssignment{}, fmt.Errorf("cluster %d tracks: %w", len(lines), err)
	}

	a := ClusterAssignment{Labels: slices.Clone(res.Labels), K: c.params.K}
	for _, ctr := range res.Centroids {
		a.Centroids = append(a.Centroids, [2]float64{ctr[0], ctr[1]})
	}
	return a, nil
}

func (c *FeatureClusterer) rng() *rand.Rand {
	seed := c.params.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
