// Package minimize adapts gonum's optimize package to three-dimensional
// objectives over r3.Vec.
package minimize

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"
)

// Method names a minimization algorithm.
type Method string

const (
	// NelderMead is derivative free and copes with the kink of a
	// sum-of-distances objective at its minimum.
	NelderMead Method = "nelder-mead"
	// BFGS uses Problem.Grad.
	BFGS Method = "bfgs"
)

// Default iteration caps.
const (
	DefaultMaxIterations  = 2000
	DefaultMaxEvaluations = 20000
)

var (
	// ErrNilObjective is returned when Problem.Func is nil.
	ErrNilObjective = errors.New("minimize: nil objective")
	// ErrMissingGradient is returned when a gradient method gets no Grad.
	ErrMissingGradient = errors.New("minimize: method requires a gradient")
)

// Problem is an objective over points in ℝ³.
type Problem struct {
	Func func(x r3.Vec) float64
	Grad func(x r3.Vec) r3.Vec // optional unless the method needs it
}

// Result is the best location found by a minimization.
type Result struct {
	X           r3.Vec
	F           float64
	Status      string
	Iterations  int
	Evaluations int
}

// Settings bounds a minimization run. Zero caps mean unlimited.
type Settings struct {
	Method         Method
	MaxIterations  int
	MaxEvaluations int
}

// DefaultSettings returns Nelder-Mead with the default caps.
func DefaultSettings() Settings {
	return Settings{
		Method:         NelderMead,
		MaxIterations:  DefaultMaxIterations,
		MaxEvaluations: DefaultMaxEvaluations,
	}
}

// Validate checks that the method is known and the caps non-negative.
func (s Settings) Validate() error {
	switch s.Method {
	case NelderMead, BFGS:
	default:
		return fmt.Errorf("minimize: unknown method %q", s.Method)
	}
	if s.MaxIterations < 0 || s.MaxEvaluations < 0 {
		return fmt.Errorf("minimize: negative iteration caps (%d, %d)", s.MaxIterations, s.MaxEvaluations)
	}
	return nil
}

// Gonum runs gonum/optimize. It holds only its settings and is safe for
// concurrent use.
type Gonum struct {
	settings Settings
}

// New returns a Gonum minimizer with the given settings.
func New(settings Settings) (*Gonum, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Gonum{settings: settings}, nil
}

// Default returns a Gonum minimizer with DefaultSettings.
func Default() *Gonum {
	return &Gonum{settings: DefaultSettings()}
}

// Settings returns the configured settings.
func (g *Gonum) Settings() Settings { return g.settings }

// Minimize searches for the minimum of p starting from x0. Hitting an
// iteration or evaluation cap, or a line-search failure on a non-smooth
// objective, is not an error: the best location seen so far is returned
// with the terminating status.
func (g *Gonum) Minimize(p Problem, x0 r3.Vec) (Result, error) {
	if p.Func == nil {
		return Result{}, ErrNilObjective
	}

	prob := optimize.Problem{
		Func: func(x []float64) float64 { return p.Func(toVec(x)) },
	}

	var method optimize.Method
	switch g.settings.Method {
	case BFGS:
		if p.Grad == nil {
			return Result{}, ErrMissingGradient
		}
		prob.Grad = func(grad, x []float64) {
			v := p.Grad(toVec(x))
			grad[0], grad[1], grad[2] = v.X, v.Y, v.Z
		}
		method = &optimize.BFGS{}
	default:
		method = &optimize.NelderMead{}
	}

	settings := &optimize.Settings{
		MajorIterations: g.settings.MaxIterations,
		FuncEvaluations: g.settings.MaxEvaluations,
	}

	res, err := optimize.Minimize(prob, []float64{x0.X, x0.Y, x0.Z}, settings, method)
	if res == nil {
		return Result{}, fmt.Errorf("minimize: %w", err)
	}
	if len(res.X) != 3 || math.IsNaN(res.F) {
		if err == nil {
			err = errors.New("objective returned NaN")
		}
		return Result{}, fmt.Errorf("minimize: no usable location (status %s): %w", res.Status, err)
	}

	return Result{
		X:           toVec(res.X),
		F:           res.F,
		Status:      res.Status.String(),
		Iterations:  res.MajorIterations,
		Evaluations: res.FuncEvaluations,
	}, nil
}

func toVec(x []float64) r3.Vec {
	return r3.Vec{X: x[0], Y: x[1], Z: x[2]}
}
