// Package evaluation runs reconstruction pipelines side by side on
// simulated jets and scores them against the true secondary vertex.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vertex.report/internal/jet"
	"github.com/banshee-data/vertex.report/internal/monitoring"
	"github.com/banshee-data/vertex.report/internal/timeutil"
	"github.com/banshee-data/vertex.report/internal/vertex"
)

// Config holds configuration for the evaluation harness.
type Config struct {
	// Workers bounds the number of jets reconstructed concurrently.
	// Zero uses GOMAXPROCS.
	Workers int

	// ResultCallback, if set, is called once per jet as results arrive.
	// Calls may come from several goroutines.
	ResultCallback func(JetResult)

	// Clock times runs and reconstructions. Nil uses the system clock.
	Clock timeutil.Clock
}

// AlgorithmResult is one pipeline's answer for one jet.
type AlgorithmResult struct {
	Algorithm        string         `json:"algorithm"`
	Outcome          vertex.Outcome `json:"outcome"`
	Vertex           r3.Vec         `json:"vertex"`
	ErrorMM          float64        `json:"error_mm,omitempty"` // ‖fitted − SV‖, converged only
	Purity           float64        `json:"purity,omitempty"`   // SV share of the fitted tracks
	FittedTracks     int            `json:"fitted_tracks"`
	ProcessingTimeUs int64          `json:"time_us"`
	Err              string         `json:"error,omitempty"`
}

// OK reports whether the pipeline produced a vertex.
func (r AlgorithmResult) OK() bool { return r.Err == "" && r.Outcome == vertex.OutcomeConverged }

// JetResult holds every pipeline's result for one jet.
type JetResult struct {
	JetID     int               `json:"jet_id"`
	NumTracks int               `json:"num_tracks"`
	SV        r3.Vec            `json:"sv"`
	Results   []AlgorithmResult `json:"results"`
}

// Harness runs several reconstructors on the same jets.
type Harness struct {
	config         Config
	clock          timeutil.Clock
	reconstructors []vertex.Reconstructor
}

// NewHarness returns a harness comparing the given reconstructors, which
// must have distinct names.
func NewHarness(config Config, recs ...vertex.Reconstructor) (*Harness, error) {
	if len(recs) == 0 {
		return nil, errors.New("evaluation: no reconstructors")
	}
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		if seen[r.Name()] {
			return nil, fmt.Errorf("evaluation: duplicate reconstructor %q", r.Name())
		}
		seen[r.Name()] = true
	}
	if config.Workers < 0 {
		return nil, fmt.Errorf("evaluation: negative worker count %d", config.Workers)
	}
	clock := config.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Harness{config: config, clock: clock, reconstructors: recs}, nil
}

// Algorithms returns the reconstructor names in evaluation order.
func (h *Harness) Algorithms() []string {
	names := make([]string, len(h.reconstructors))
	for i, r := range h.reconstructors {
		names[i] = r.Name()
	}
	return names
}

// Evaluate runs every reconstructor on j. Reconstruction errors are
// recorded per algorithm rather than returned.
func (h *Harness) Evaluate(j jet.Jet) JetResult {
	lines := j.Lines()
	prov := make(map[vertex.Line]jet.Provenance, len(lines))
	for _, t := range j.Tracks() {
		prov[t.Line] = t.Provenance
	}

	res := JetResult{JetID: j.ID, NumTracks: len(lines), SV: j.SV}
	for _, r := range h.reconstructors {
		start := h.clock.Now()
		rec, err := r.Reconstruct(lines)
		elapsed := h.clock.Since(start)

		ar := AlgorithmResult{
			Algorithm:        r.Name(),
			ProcessingTimeUs: elapsed.Microseconds(),
		}
		if err != nil {
			monitoring.Logf("evaluation: jet %d %s: %v", j.ID, r.Name(), err)
			ar.Err = err.Error()
			res.Results = append(res.Results, ar)
			continue
		}
		ar.Outcome = rec.Outcome
		if rec.OK() {
			ar.Vertex = rec.Vertex
			ar.ErrorMM = r3.Norm(r3.Sub(rec.Vertex, j.SV))
			fitted := fittedTracks(rec)
			ar.FittedTracks = len(fitted)
			ar.Purity = purity(fitted, prov)
		}
		res.Results = append(res.Results, ar)
	}
	return res
}

// Run evaluates jets concurrently and returns the per-jet results in input
// order together with their summary. Cancelling ctx stops scheduling new
// jets.
func (h *Harness) Run(ctx context.Context, jets []jet.Jet) (Summary, []JetResult, error) {
	runID := uuid.New().String()
	started := h.clock.Now()

	workers := h.config.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]JetResult, len(jets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range jets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = h.Evaluate(jets[i])
			if h.config.ResultCallback != nil {
				h.config.ResultCallback(results[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, nil, fmt.Errorf("evaluation run %s: %w", runID, err)
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, nil, fmt.Errorf("evaluation run %s: %w", runID, err)
	}

	s := Summarize(h.Algorithms(), results)
	s.RunID = runID
	s.StartedAt = started
	s.Duration = h.clock.Since(started)
	monitoring.Debugf("evaluation: run %s scored %d jets in %s", runID, len(jets), s.Duration)
	return s, results, nil
}

// fittedTracks returns the tracks that produced the accepted vertex.
func fittedTracks(rec vertex.Reconstruction) []vertex.Line {
	switch {
	case rec.Fit != nil:
		return rec.Fit.Tracks
	case rec.ClusterFit != nil:
		for _, c := range rec.ClusterFit.Clusters {
			if c.Label == rec.ClusterFit.Label {
				return c.Tracks
			}
		}
	}
	return nil
}

func purity(lines []vertex.Line, prov map[vertex.Line]jet.Provenance) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sv int
	for _, l := range lines {
		if p, ok := prov[l]; ok && p == jet.Secondary {
			sv++
		}
	}
	return float64(sv) / float64(len(lines))
}
