package evaluation

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/vertex.report/internal/jet"
	"github.com/banshee-data/vertex.report/internal/monitoring"
)

// SweepConfig describes a track multiplicity scan. At multiplicity n each
// jet is generated with n PV, n+1 SV and n pileup tracks on average.
type SweepConfig struct {
	Multiplicities []int
	JetsPerPoint   int
	Generator      jet.GeneratorParams // base parameters; counts are overridden
	Seed           uint64              // 0 seeds each point from the clock
}

// SweepPoint is the run summary at one multiplicity.
type SweepPoint struct {
	Multiplicity int     `json:"multiplicity"`
	MeanTracks   int     `json:"mean_tracks"` // 3n + 1
	Summary      Summary `json:"summary"`
}

// Multiplicities returns floor(linspace(lo, hi, steps)), dropping repeats.
func Multiplicities(lo, hi float64, steps int) []int {
	if steps <= 0 {
		return nil
	}
	if steps == 1 {
		return []int{int(math.Floor(lo))}
	}
	var out []int
	for i := range steps {
		v := int(math.Floor(lo + (hi-lo)*float64(i)/float64(steps-1)))
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Sweep generates a fresh jet sample per multiplicity and runs the harness
// on it. Point i uses seed Seed+i so points are independent but
// reproducible.
func (h *Harness) Sweep(ctx context.Context, cfg SweepConfig) ([]SweepPoint, error) {
	if len(cfg.Multiplicities) == 0 {
		return nil, fmt.Errorf("evaluation: sweep needs at least one multiplicity")
	}
	if cfg.JetsPerPoint <= 0 {
		return nil, fmt.Errorf("evaluation: sweep needs a positive jet count, got %d", cfg.JetsPerPoint)
	}

	points := make([]SweepPoint, 0, len(cfg.Multiplicities))
	for i, n := range cfg.Multiplicities {
		p := cfg.Generator
		p.TracksPV, p.TracksSV, p.TracksPileup = n, n+1, n

		var seed uint64
		if cfg.Seed != 0 {
			seed = cfg.Seed + uint64(i)
		}
		gen, err := jet.NewGenerator(p, seed)
		if err != nil {
			return nil, fmt.Errorf("sweep point n=%d: %w", n, err)
		}
		jets, err := gen.Generate(cfg.JetsPerPoint)
		if err != nil {
			return nil, fmt.Errorf("sweep point n=%d: %w", n, err)
		}

		monitoring.Logf("sweep: n=%d, %d jets", n, len(jets))
		s, _, err := h.Run(ctx, jets)
		if err != nil {
			return nil, fmt.Errorf("sweep point n=%d: %w", n, err)
		}
		points = append(points, SweepPoint{Multiplicity: n, MeanTracks: 3*n + 1, Summary: s})
	}
	return points, nil
}
