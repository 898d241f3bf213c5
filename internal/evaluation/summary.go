package evaluation

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AlgorithmSummary aggregates one pipeline over a run.
type AlgorithmSummary struct {
	Algorithm         string         `json:"algorithm"`
	Jets              int            `json:"jets"`
	Converged         int            `json:"converged"`
	Efficiency        float64        `json:"efficiency"`    // converged / jets
	MeanErrorMM       float64        `json:"mean_error_mm"` // over converged jets
	StdDevMM          float64        `json:"stddev_mm"`
	StdErrMM          float64        `json:"stderr_mm"` // σ/√n
	MedianErrorMM     float64        `json:"median_error_mm"`
	MeanPurity        float64        `json:"mean_purity"`
	Outcomes          map[string]int `json:"outcomes"`
	Failures          int            `json:"failures"` // reconstruction errors
	TotalProcessingUs int64          `json:"total_processing_us"`
	AvgProcessingUs   float64        `json:"avg_processing_us"`

	// Errors holds the per-jet vertex errors of converged jets in run order.
	Errors []float64 `json:"-"`
}

// Summary is the JSON-serializable result of a run.
type Summary struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	Duration   time.Duration      `json:"duration_ns"`
	Jets       int                `json:"jets"`
	Algorithms []AlgorithmSummary `json:"algorithms"`
}

// Algorithm returns the summary for name.
func (s Summary) Algorithm(name string) (AlgorithmSummary, bool) {
	for _, a := range s.Algorithms {
		if a.Algorithm == name {
			return a, true
		}
	}
	return AlgorithmSummary{}, false
}

// Summarize aggregates per-jet results for the named algorithms. Spread
// statistics are left at zero when fewer than two jets converged.
func Summarize(algorithms []string, results []JetResult) Summary {
	s := Summary{Jets: len(results)}
	for _, name := range algorithms {
		a := AlgorithmSummary{Algorithm: name, Outcomes: make(map[string]int)}
		var purities []float64
		for _, jr := range results {
			for _, r := range jr.Results {
				if r.Algorithm != name {
					continue
				}
				a.Jets++
				a.TotalProcessingUs += r.ProcessingTimeUs
				if r.Err != "" {
					a.Failures++
					continue
				}
				a.Outcomes[r.Outcome.String()]++
				if r.OK() {
					a.Converged++
					a.Errors = append(a.Errors, r.ErrorMM)
					purities = append(purities, r.Purity)
				}
			}
		}

		if a.Jets > 0 {
			a.Efficiency = float64(a.Converged) / float64(a.Jets)
			a.AvgProcessingUs = float64(a.TotalProcessingUs) / float64(a.Jets)
		}
		if n := len(a.Errors); n > 0 {
			a.MeanErrorMM = stat.Mean(a.Errors, nil)
			a.MeanPurity = floats.Sum(purities) / float64(n)
			a.MedianErrorMM = median(a.Errors)
			if n > 1 {
				_, a.StdDevMM = stat.MeanStdDev(a.Errors, nil)
				a.StdErrMM = stat.StdErr(a.StdDevMM, float64(n))
			}
		}
		s.Algorithms = append(s.Algorithms, a)
	}
	return s
}

func median(x []float64) float64 {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	slices.Sort(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
