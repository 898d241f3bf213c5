package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/vertex.report/internal/evaluation"
)

// EchartsAssetsHost is where rendered pages load the echarts scripts from.
var EchartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// WriteComparisonChart renders a multiplicity sweep as an HTML page: mean
// vertex error with its standard error band, per-jet processing time, and
// the time ratio of the first two algorithms.
func WriteComparisonChart(w io.Writer, points []evaluation.SweepPoint) error {
	if len(points) == 0 {
		return ErrNoData
	}
	algorithms := algorithmNames(points)

	x := make([]string, len(points))
	for i, p := range points {
		x[i] = fmt.Sprint(p.MeanTracks)
	}

	errLine := charts.NewLine()
	errLine.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Vertex reconstruction sweep", Width: "1000px", Height: "480px", AssetsHost: EchartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Vertex error", Subtitle: fmt.Sprintf("%d multiplicities", len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "N tracks", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mean error (mm)", NameLocation: "middle", NameGap: 45}),
	)
	errLine.SetXAxis(x)

	timeLine := charts.NewLine()
	timeLine.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "360px", AssetsHost: EchartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Processing time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "N tracks", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "µs per jet", NameLocation: "middle", NameGap: 45}),
	)
	timeLine.SetXAxis(x)

	for _, name := range algorithms {
		mean := make([]opts.LineData, len(points))
		lo := make([]opts.LineData, len(points))
		hi := make([]opts.LineData, len(points))
		us := make([]opts.LineData, len(points))
		for i, p := range points {
			a, _ := p.Summary.Algorithm(name)
			mean[i] = opts.LineData{Value: a.MeanErrorMM}
			lo[i] = opts.LineData{Value: a.MeanErrorMM - a.StdErrMM}
			hi[i] = opts.LineData{Value: a.MeanErrorMM + a.StdErrMM}
			us[i] = opts.LineData{Value: a.AvgProcessingUs}
		}
		dashed := charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Opacity: opts.Float(0.5)})
		errLine.AddSeries(name, mean).
			AddSeries(name+" −σ", lo, dashed).
			AddSeries(name+" +σ", hi, dashed)
		timeLine.AddSeries(name, us)
	}

	page := components.NewPage()
	page.SetAssetsHost(EchartsAssetsHost)
	page.AddCharts(errLine, timeLine)

	if len(algorithms) >= 2 {
		page.AddCharts(ratioChart(points, algorithms[0], algorithms[1], x))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render comparison chart: %w", err)
	}
	return nil
}

func ratioChart(points []evaluation.SweepPoint, num, den string, x []string) *charts.Scatter {
	data := make([]opts.ScatterData, len(points))
	for i, p := range points {
		a, _ := p.Summary.Algorithm(num)
		b, _ := p.Summary.Algorithm(den)
		var r float64
		if b.TotalProcessingUs > 0 {
			r = float64(a.TotalProcessingUs) / float64(b.TotalProcessingUs)
		}
		data[i] = opts.ScatterData{Value: r}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "240px", AssetsHost: EchartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("t(%s) / t(%s)", num, den)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "N tracks", NameLocation: "middle", NameGap: 25}),
	)
	scatter.SetXAxis(x).AddSeries("ratio", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// WriteSummaryChart renders one run as bar charts of mean error and
// efficiency per algorithm.
func WriteSummaryChart(w io.Writer, s evaluation.Summary) error {
	if len(s.Algorithms) == 0 {
		return ErrNoData
	}
	names := make([]string, len(s.Algorithms))
	errs := make([]opts.BarData, len(s.Algorithms))
	eff := make([]opts.BarData, len(s.Algorithms))
	for i, a := range s.Algorithms {
		names[i] = a.Algorithm
		errs[i] = opts.BarData{Value: a.MeanErrorMM}
		eff[i] = opts.BarData{Value: a.Efficiency}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Vertex reconstruction", Width: "900px", Height: "480px", AssetsHost: EchartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Algorithm comparison", Subtitle: fmt.Sprintf("run=%s jets=%d", s.RunID, s.Jets)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
	)
	bar.SetXAxis(names).
		AddSeries("mean error (mm)", errs, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("efficiency", eff, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.SetAssetsHost(EchartsAssetsHost)
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render summary chart: %w", err)
	}
	return nil
}

// algorithmNames returns the algorithms of the first point in order.
func algorithmNames(points []evaluation.SweepPoint) []string {
	var names []string
	for _, a := range points[0].Summary.Algorithms {
		names = append(names, a.Algorithm)
	}
	return names
}
