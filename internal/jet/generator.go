package jet

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/vertex.report/internal/vertex"
)

// GeneratorParams controls the jet simulation. Lengths are in mm, angles in
// radians.
type GeneratorParams struct {
	// Mean track multiplicities per production process. Each jet draws its
	// count uniformly from [n-TracksRange, n+TracksRange), with the lower
	// bound raised to 1 when n <= TracksRange.
	TracksPV     int
	TracksSV     int
	TracksPileup int
	TracksRange  int

	FlightLength float64 // mean PV to SV distance
	SigmaFlight  float64
	SigmaTheta   float64 // SV polar angle spread; tracks use twice this
	ThetaMaxSV   float64 // SV polar angles above this are reset to 0
	ThetaMaxJet  float64 // track polar angles are clipped here
	SigmaCoord   float64 // Gaussian smearing of track origins

	PileupZ     float64 // z of pileup track origins
	PileupTheta float64 // fixed polar angle of pileup tracks
}

// DefaultGeneratorParams returns a B-meson-like setup: 4 PV, 5 SV and 3
// pileup tracks on average, 10 mm flight.
func DefaultGeneratorParams() GeneratorParams {
	return GeneratorParams{
		TracksPV:     4,
		TracksSV:     5,
		TracksPileup: 3,
		TracksRange:  2,
		FlightLength: 10,
		SigmaFlight:  0.1,
		SigmaTheta:   0.1,
		ThetaMaxSV:   0.2,
		ThetaMaxJet:  0.4,
		SigmaCoord:   1e-3,
		PileupZ:      5,
		PileupTheta:  0.2,
	}
}

// Validate checks that counts are non-negative and spreads usable.
func (p GeneratorParams) Validate() error {
	if p.TracksPV < 0 || p.TracksSV < 0 || p.TracksPileup < 0 || p.TracksRange < 0 {
		return fmt.Errorf("%w: negative track counts (%d, %d, %d, range %d)",
			vertex.ErrInvalidInput, p.TracksPV, p.TracksSV, p.TracksPileup, p.TracksRange)
	}
	if p.SigmaFlight < 0 || p.SigmaTheta < 0 || p.SigmaCoord < 0 {
		return fmt.Errorf("%w: negative spread", vertex.ErrInvalidInput)
	}
	if !(p.FlightLength > 0) {
		return fmt.Errorf("%w: flight length must be positive, got %g", vertex.ErrInvalidInput, p.FlightLength)
	}
	if p.PileupTheta <= 0 || p.PileupTheta >= math.Pi/2 {
		return fmt.Errorf("%w: pileup theta must be in (0, π/2), got %g", vertex.ErrInvalidInput, p.PileupTheta)
	}
	return nil
}

// Generator produces simulated jets. It is not safe for concurrent use;
// give each goroutine its own generator.
type Generator struct {
	params GeneratorParams
	rng    *rand.Rand
	nextID int

	flight  distuv.Normal
	thetaSV distuv.Normal
	theta   distuv.Normal
	smear   distuv.Normal
	phi     distuv.Uniform
}

// NewGenerator validates params and returns a generator. A non-zero seed
// makes the sequence of jets reproducible; 0 seeds from the clock.
func NewGenerator(params GeneratorParams, seed uint64) (*Generator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed>>1|1)
	return &Generator{
		params:  params,
		rng:     rand.New(src),
		flight:  distuv.Normal{Mu: params.FlightLength, Sigma: params.SigmaFlight, Src: src},
		thetaSV: distuv.Normal{Mu: 0, Sigma: params.SigmaTheta, Src: src},
		theta:   distuv.Normal{Mu: 0, Sigma: 2 * params.SigmaTheta, Src: src},
		smear:   distuv.Normal{Mu: 0, Sigma: params.SigmaCoord, Src: src},
		phi:     distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src},
	}, nil
}

// Params returns the generator configuration.
func (g *Generator) Params() GeneratorParams { return g.params }

// Generate returns the next n jets.
func (g *Generator) Generate(n int) ([]Jet, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative jet count %d", vertex.ErrInvalidInput, n)
	}
	jets := make([]Jet, 0, n)
	for range n {
		j, err := g.Next()
		if err != nil {
			return nil, err
		}
		jets = append(jets, j)
	}
	return jets, nil
}

// Next generates a single jet. The primary vertex sits at the origin.
func (g *Generator) Next() (Jet, error) {
	p := g.params
	nPV := g.multiplicity(p.TracksPV)
	nSV := g.multiplicity(p.TracksSV)
	nPileup := g.multiplicity(p.TracksPileup)

	r := g.flight.Rand()
	thetaSV := g.thetaSV.Rand()
	if thetaSV > p.ThetaMaxSV {
		thetaSV = 0
	}
	sv := r3.Scale(r, polar(thetaSV, g.phi.Rand()))

	j := Jet{ID: g.nextID, SV: sv}
	g.nextID++

	var err error
	if j.TracksPV, err = g.vertexTracks(j.PV, nPV); err != nil {
		return Jet{}, err
	}
	if j.TracksSV, err = g.vertexTracks(j.SV, nSV); err != nil {
		return Jet{}, err
	}
	if j.TracksPileup, err = g.pileupTracks(nPileup); err != nil {
		return Jet{}, err
	}
	return j, nil
}

// multiplicity draws a per-vertex track count.
func (g *Generator) multiplicity(n int) int {
	lo := 1
	if n > g.params.TracksRange {
		lo = n - g.params.TracksRange
	}
	hi := n + g.params.TracksRange
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo)
}

// vertexTracks emits n tracks from a smeared copy of v. Only the upper end
// of the polar angle is clipped.
func (g *Generator) vertexTracks(v r3.Vec, n int) ([]vertex.Line, error) {
	out := make([]vertex.Line, 0, n)
	for range n {
		origin := r3.Add(v, r3.Vec{X: g.smear.Rand(), Y: g.smear.Rand(), Z: g.smear.Rand()})
		theta := math.Min(g.theta.Rand(), g.params.ThetaMaxJet)
		l, err := vertex.NewLine(origin, polar(theta, g.phi.Rand()))
		if err != nil {
			return nil, fmt.Errorf("generate track: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}

// pileupTracks emits tracks on a cone of half-angle PileupTheta whose
// origins sit at z = PileupZ, far enough out that they never cross the PV.
func (g *Generator) pileupTracks(n int) ([]vertex.Line, error) {
	p := g.params
	r := (p.PileupZ + 1) / math.Cos(p.PileupTheta)
	out := make([]vertex.Line, 0, n)
	for range n {
		dir := polar(p.PileupTheta, g.phi.Rand())
		origin := r3.Vec{X: r * dir.X, Y: r * dir.Y, Z: p.PileupZ}
		l, err := vertex.NewLine(origin, dir)
		if err != nil {
			return nil, fmt.Errorf("generate pileup track: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}

func polar(theta, phi float64) r3.Vec {
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	return r3.Vec{X: st * cp, Y: st * sp, Z: ct}
}
