package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vertex.report/internal/evaluation"
	"github.com/banshee-data/vertex.report/internal/jet"
	"github.com/banshee-data/vertex.report/internal/vertex"
)

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteJet prints a human-readable description of j.
func WriteJet(w io.Writer, j jet.Jet) error {
	ew := &errWriter{w: w}
	ew.printf("Jet %d\n", j.ID)
	ew.printf("- primary vertex:   %s mm\n", fmtVec(j.PV))
	ew.printf("- secondary vertex: %s mm (flight %.4f mm)\n", fmtVec(j.SV), j.FlightLength())
	for _, group := range []struct {
		name  string
		lines []vertex.Line
	}{
		{"primary", j.TracksPV},
		{"secondary", j.TracksSV},
		{"pileup", j.TracksPileup},
	} {
		ew.printf("- %s tracks: %d\n", group.name, len(group.lines))
		for _, l := range group.lines {
			ew.printf("    origin %s  direction %s  ip %.4f mm\n", fmtVec(l.Origin()), fmtVec(l.Direction()), l.ImpactParameter())
		}
	}
	return ew.err
}

// WriteJetResult prints each algorithm's outcome for one jet.
func WriteJetResult(w io.Writer, r evaluation.JetResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	ew := &errWriter{w: tw}
	ew.printf("jet %d\ttracks %d\tsv %s\n", r.JetID, r.NumTracks, fmtVec(r.SV))
	for _, a := range r.Results {
		switch {
		case a.Err != "":
			ew.printf("  %s\terror\t%s\n", a.Algorithm, a.Err)
		case a.OK():
			ew.printf("  %s\t%s\t%s\terror %.4f mm\tpurity %.2f\t%d µs\n",
				a.Algorithm, a.Outcome, fmtVec(a.Vertex), a.ErrorMM, a.Purity, a.ProcessingTimeUs)
		default:
			ew.printf("  %s\t%s\t\t\t\t%d µs\n", a.Algorithm, a.Outcome, a.ProcessingTimeUs)
		}
	}
	if ew.err != nil {
		return ew.err
	}
	return tw.Flush()
}

// WriteSummary prints a one-line-per-algorithm table of s.
func WriteSummary(w io.Writer, s evaluation.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	ew := &errWriter{w: tw}
	ew.printf("run %s: %d jets in %s\n", s.RunID, s.Jets, s.Duration)
	ew.printf("algorithm\tefficiency\tmean error (mm)\tstderr (mm)\tmedian (mm)\tpurity\tavg time (µs)\n")
	for _, a := range s.Algorithms {
		ew.printf("%s\t%.3f\t%.4f\t%.4f\t%.4f\t%.3f\t%.1f\n",
			a.Algorithm, a.Efficiency, a.MeanErrorMM, a.StdErrMM, a.MedianErrorMM, a.MeanPurity, a.AvgProcessingUs)
	}
	if ew.err != nil {
		return ew.err
	}
	return tw.Flush()
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

// errWriter keeps the first write error so callers can check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
