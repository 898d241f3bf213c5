// Package report renders evaluation results: PNG plots with gonum/plot,
// HTML charts with go-echarts, JSON summaries and plain-text event dumps.
package report

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("report: no data")

// HistogramOptions controls WriteErrorHistogram.
type HistogramOptions struct {
	Title string
	Bins  int  // 0 picks √n bins
	LogY  bool // log-scaled counts, skipped when the range is degenerate
}

// WriteErrorHistogram saves a histogram of vertex errors (mm) to path. The
// image format follows the file extension (png, svg, pdf...).
func WriteErrorHistogram(path string, errs []float64, o HistogramOptions) error {
	p, err := errorHistogram(errs, o)
	if err != nil {
		return err
	}
	if err := p.Save(7*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram %s: %w", path, err)
	}
	return nil
}

func errorHistogram(errs []float64, o HistogramOptions) (*plot.Plot, error) {
	if len(errs) == 0 {
		return nil, ErrNoData
	}
	h, err := plotter.NewHist(plotter.Values(errs), o.Bins)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}

	logY := false
	if o.LogY {
		h.LogY = true
		_, _, ymin, ymax := h.DataRange()
		logY = ymin > 0 && ymax > ymin
		h.LogY = logY
	}

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "‖SV fit − SV true‖ (mm)"
	p.Y.Label.Text = "Counts"
	if logY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Add(h)
	return p, nil
}

// binFractions bins errs like WriteErrorHistogram and returns each bin's
// centre with its share of the total and the Poisson error √count/total.
func binFractions(errs []float64, bins int) (plotter.XYs, plotter.YErrors, error) {
	h, err := plotter.NewHist(plotter.Values(errs), bins)
	if err != nil {
		return nil, nil, err
	}
	total := float64(len(errs))
	xys := make(plotter.XYs, len(h.Bins))
	yerrs := make(plotter.YErrors, len(h.Bins))
	for i, b := range h.Bins {
		xys[i] = plotter.XY{X: (b.Min + b.Max) / 2, Y: b.Weight / total}
		e := math.Sqrt(b.Weight) / total
		yerrs[i].Low, yerrs[i].High = e, e
	}
	return xys, yerrs, nil
}

// WriteErrorFractions saves the per-bin fraction of jets with Poisson error
// bars, the companion panel to WriteErrorHistogram.
func WriteErrorFractions(path string, errs []float64, o HistogramOptions) error {
	if len(errs) == 0 {
		return ErrNoData
	}
	xys, yerrs, err := binFractions(errs, o.Bins)
	if err != nil {
		return fmt.Errorf("fractions: %w", err)
	}

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "‖SV fit − SV true‖ (mm)"
	p.Y.Label.Text = "Counts / total"
	p.Add(plotter.NewGrid())

	pts, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("fractions: %w", err)
	}
	bars, err := plotter.NewYErrorBars(struct {
		plotter.XYs
		plotter.YErrors
	}{xys, yerrs})
	if err != nil {
		return fmt.Errorf("fractions: %w", err)
	}
	bars.CapWidth = vg.Points(4)
	p.Add(pts, bars)

	if err := p.Save(7*vg.Inch, 2.5*vg.Inch, path); err != nil {
		return fmt.Errorf("save fractions %s: %w", path, err)
	}
	return nil
}
