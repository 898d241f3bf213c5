// Package jet holds simulated jet events and the generator that produces
// them for reconstruction studies.
package jet

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vertex.report/internal/vertex"
)

// Provenance records which production process emitted a track.
type Provenance int

const (
	Primary Provenance = iota
	Secondary
	Pileup
)

func (p Provenance) String() string {
	switch p {
	case Primary:
		return "pv"
	case Secondary:
		return "sv"
	case Pileup:
		return "pileup"
	default:
		return fmt.Sprintf("provenance(%d)", int(p))
	}
}

// Track is a reconstructed line tagged with its true origin. The
// reconstruction pipelines only ever see the Line.
type Track struct {
	Line       vertex.Line
	Provenance Provenance
}

// Jet is one simulated event: the true primary and secondary vertices and
// the tracks they emitted, plus pileup.
type Jet struct {
	ID           int
	PV           r3.Vec
	SV           r3.Vec
	TracksPV     []vertex.Line
	TracksSV     []vertex.Line
	TracksPileup []vertex.Line
}

// Lines returns every track of the jet, primary first, then secondary,
// then pileup.
func (j Jet) Lines() []vertex.Line {
	out := make([]vertex.Line, 0, j.NumTracks())
	out = append(out, j.TracksPV...)
	out = append(out, j.TracksSV...)
	return append(out, j.TracksPileup...)
}

// Tracks returns the same ordering as Lines with provenance attached.
func (j Jet) Tracks() []Track {
	out := make([]Track, 0, j.NumTracks())
	for _, l := range j.TracksPV {
		out = append(out, Track{Line: l, Provenance: Primary})
	}
	for _, l := range j.TracksSV {
		out = append(out, Track{Line: l, Provenance: Secondary})
	}
	for _, l := range j.TracksPileup {
		out = append(out, Track{Line: l, Provenance: Pileup})
	}
	return out
}

// NumTracks returns the total track count.
func (j Jet) NumTracks() int {
	return len(j.TracksPV) + len(j.TracksSV) + len(j.TracksPileup)
}

// FlightLength returns the PV to SV distance in mm.
func (j Jet) FlightLength() float64 {
	return r3.Norm(r3.Sub(j.SV, j.PV))
}
