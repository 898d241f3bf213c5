// Package kmeans implements k-means clustering of small feature sets.
//
// Used by the vertex package to partition tracks in the
// (impact parameter, direction z) feature plane.
package kmeans

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrTooFewPoints is returned when there are fewer points than clusters.
	ErrTooFewPoints = errors.New("kmeans: fewer points than clusters")
	// ErrDimensionMismatch is returned when points differ in length.
	ErrDimensionMismatch = errors.New("kmeans: points have different dimensions")
)

// Result is a clustering of the input points.
type Result struct {
	Labels     []int       // Labels[i] is the cluster of point i, in [0, k)
	Centroids  [][]float64 // k centroids
	Inertia    float64     // sum of squared distances to assigned centroids
	Iterations int         // Lloyd iterations of the winning run
}

// Fit clusters points into k groups with Lloyd's algorithm, seeding each
// of restarts runs with k-means++ and keeping the lowest-inertia run.
// Each run stops when no assignment changes or after maxIter iterations.
func Fit(points [][]float64, k, maxIter, restarts int, rng *rand.Rand) (Result, error) {
	if k <= 0 || maxIter <= 0 || restarts <= 0 {
		return Result{}, fmt.Errorf("kmeans: k, maxIter and restarts must be positive (got %d, %d, %d)", k, maxIter, restarts)
	}
	if len(points) < k {
		return Result{}, fmt.Errorf("%w: %d points, k=%d", ErrTooFewPoints, len(points), k)
	}
	dim := len(points[0])
	for _, p := range points {
		if len(p) != dim {
			return Result{}, ErrDimensionMismatch
		}
	}

	best := Result{Inertia: math.Inf(1)}
	for r := 0; r < restarts; r++ {
		res := lloyd(points, seedPlusPlus(points, k, rng), maxIter)
		if res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

// seedPlusPlus picks k initial centroids, each new one drawn with
// probability proportional to its squared distance from the nearest
// centroid chosen so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))

	d2 := make([]float64, len(points))
	for len(centroids) < k {
		for i, p := range points {
			_, d2[i] = nearest(p, centroids)
		}
		total := floats.Sum(d2)
		if total == 0 {
			// Remaining points coincide with chosen centroids.
			centroids = append(centroids, clone(points[rng.IntN(len(points))]))
			continue
		}
		target := rng.Float64() * total
		idx := len(points) - 1
		var acc float64
		for i, d := range d2 {
			acc += d
			if acc >= target && d > 0 {
				idx = i
				break
			}
		}
		centroids = append(centroids, clone(points[idx]))
	}
	return centroids
}

func lloyd(points [][]float64, centroids [][]float64, maxIter int) Result {
	k := len(centroids)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	counts := make([]int, k)

	iter := 0
	for iter < maxIter {
		iter++
		changed := false

		// Assignment step
		for i, p := range points {
			c, _ := nearest(p, centroids)
			if labels[i] != c {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		// Update step
		for j := range centroids {
			for d := range centroids[j] {
				centroids[j][d] = 0
			}
			counts[j] = 0
		}
		for i, p := range points {
			floats.Add(centroids[labels[i]], p)
			counts[labels[i]]++
		}
		for j := range centroids {
			if counts[j] > 0 {
				floats.Scale(1/float64(counts[j]), centroids[j])
			}
		}
		for j := range centroids {
			if counts[j] > 0 {
				continue
			}
			// Re-seed an empty cluster with the point worst served by its
			// current centroid and move that point over.
			far := farthest(points, labels, centroids, counts)
			copy(centroids[j], points[far])
			counts[labels[far]]--
			labels[far] = j
			counts[j] = 1
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return Result{Labels: labels, Centroids: centroids, Inertia: inertia, Iterations: iter}
}

// farthest returns the index of the point farthest from its centroid
// among clusters that can spare a member.
func farthest(points [][]float64, labels []int, centroids [][]float64, counts []int) int {
	idx, worst := 0, -1.0
	for i, p := range points {
		if counts[labels[i]] < 2 {
			continue
		}
		if d := sqDist(p, centroids[labels[i]]); d > worst {
			idx, worst = i, d
		}
	}
	return idx
}

// Assign returns the index of the centroid nearest to p.
func Assign(p []float64, centroids [][]float64) int {
	c, _ := nearest(p, centroids)
	return c
}

func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for j, c := range centroids {
		if d := sqDist(p, c); d < bestD {
			best, bestD = j, d
		}
	}
	return best, bestD
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
