package vertex

import (
	"math"
	"slices"

	"github.com/banshee-data/vertex.report/internal/monitoring"
)

// Couple is a pair of tracks judged to come from the same vertex.
type Couple [2]Line

// GreedyVertexFinder pairs tracks by nearest neighbour in input order.
//
// The result depends on input order: the front track is always paired
// first, so reordering the input can change which couples form. This is a
// greedy heuristic, not an optimal matching.
type GreedyVertexFinder struct {
	params FinderParams
}

// NewGreedyVertexFinder validates params and returns a finder.
func NewGreedyVertexFinder(params FinderParams) (*GreedyVertexFinder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &GreedyVertexFinder{params: params}, nil
}

// Params returns the finder configuration.
func (f *GreedyVertexFinder) Params() FinderParams { return f.params }

// FindCouples repeatedly takes the front track, finds its nearest remaining
// neighbour by LineDistance and couples the two when the distance is below
// the threshold. An uncoupled front track is discarded; its neighbour is
// kept or discarded according to the RejectPolicy. A single leftover track
// is discarded. Every input track appears in at most one couple.
func (f *GreedyVertexFinder) FindCouples(lines []Line) ([]Couple, error) {
	if len(lines) == 0 {
		return nil, invalidInputf("no tracks to pair")
	}

	pool := slices.Clone(lines)
	var couples []Couple
	for len(pool) > 1 {
		t := pool[0]
		pool = pool[1:]

		j, d := nearestLine(t, pool)
		if d < f.params.DistanceThreshold {
			couples = append(couples, Couple{t, pool[j]})
			pool = slices.Delete(pool, j, j+1)
			continue
		}

		monitoring.Debugf("finder: track unpaired, nearest at %.4g mm (threshold %.4g mm)", d, f.params.DistanceThreshold)
		if f.params.RejectPolicy == ConsumeNearest {
			pool = slices.Delete(pool, j, j+1)
		}
	}
	return couples, nil
}

// nearestLine returns the index of and distance to the line in pool
// closest to t. The first of equal minima wins.
func nearestLine(t Line, pool []Line) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for i, other := range pool {
		if d := t.LineDistance(other); d < bestD {
			best, bestD = i, d
		}
	}
	return best, bestD
}

// Flatten returns the tracks of couples in order, first member first.
func Flatten(couples []Couple) []Line {
	out := make([]Line, 0, 2*len(couples))
	for _, c := range couples {
		out = append(out, c[0], c[1])
	}
	return out
}
