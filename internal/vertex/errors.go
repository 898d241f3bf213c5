package vertex

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports degenerate input: no tracks, non-unit direction
// vectors, non-positive thresholds or cluster counts, mismatched labels.
var ErrInvalidInput = errors.New("vertex: invalid input")

func invalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Outcome classifies the result of a reconstruction attempt.
type Outcome int

const (
	// OutcomeConverged means a vertex was fitted below the chi2 threshold.
	OutcomeConverged Outcome = iota
	// OutcomeFitNonConvergence means the robust fitter dropped below the
	// minimum track count without meeting the chi2 threshold.
	OutcomeFitNonConvergence
	// OutcomeClusterFitRejected means every cluster's residual exceeded the
	// chi2 threshold.
	OutcomeClusterFitRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConverged:
		return "converged"
	case OutcomeFitNonConvergence:
		return "fit_non_convergence"
	case OutcomeClusterFitRejected:
		return "cluster_fit_rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText renders the outcome by name in JSON reports.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
