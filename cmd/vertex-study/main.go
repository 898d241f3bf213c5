// Command vertex-study generates synthetic jets and compares secondary
// vertex reconstruction pipelines on them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/banshee-data/vertex.report/internal/config"
	"github.com/banshee-data/vertex.report/internal/evaluation"
	"github.com/banshee-data/vertex.report/internal/jet"
	"github.com/banshee-data/vertex.report/internal/monitoring"
	"github.com/banshee-data/vertex.report/internal/report"
	"github.com/banshee-data/vertex.report/internal/version"
	"github.com/banshee-data/vertex.report/internal/vertex"
	"github.com/banshee-data/vertex.report/internal/vertex/minimize"
)

// Run modes.
const (
	modeSSVF    = "ssvf"
	modeCSSVF   = "cssvf"
	modeCompare = "compare"
	modeSweep   = "sweep"
	modeDump    = "dump"
)

// Config holds the command line configuration. Zero Jets and Seed, and
// negative Workers, leave the study config value in place.
type Config struct {
	Mode           string
	ConfigPath     string
	Jets           int
	Seed           uint64
	Workers        int
	OutputDir      string
	Multiplicities []int
	SweepJets      int
	Bins           int
	LogY           bool
	JSON           bool
	Verbose        bool
	ShowVersion    bool
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid flags: %v", err)
	}
	if cfg.ShowVersion {
		fmt.Printf("vertex-study %s\n", version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("vertex-study: %v", err)
	}
}

func parseFlags(args []string) (Config, error) {
	cfg := Config{}
	var multiplicities string

	fs := flag.NewFlagSet("vertex-study", flag.ContinueOnError)
	fs.StringVar(&cfg.Mode, "mode", modeCompare, "Run mode: ssvf, cssvf, compare, sweep, dump")
	fs.StringVar(&cfg.ConfigPath, "config", "", "Study config file (.json, .yaml or .yml)")
	fs.IntVar(&cfg.Jets, "jets", 0, "Number of jets to generate (0 uses the config value)")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "Random seed for generation and clustering (0 uses the config value)")
	fs.IntVar(&cfg.Workers, "workers", -1, "Parallel evaluation workers (0 for one per CPU, -1 uses the config value)")
	fs.StringVar(&cfg.OutputDir, "out", "", "Output directory for JSON, PNG and HTML reports")
	fs.StringVar(&multiplicities, "multiplicities", "", "Comma-separated track multiplicities for sweep mode (e.g. 2,4,6)")
	fs.IntVar(&cfg.SweepJets, "sweep-jets", 0, "Jets per sweep point (0 uses the config value)")
	fs.IntVar(&cfg.Bins, "bins", 100, "Histogram bins")
	fs.BoolVar(&cfg.LogY, "logy", true, "Log-scale histogram counts")
	fs.BoolVar(&cfg.JSON, "json", false, "Print the summary as JSON instead of text")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log per-track fitting decisions")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	switch cfg.Mode {
	case modeSSVF, modeCSSVF, modeCompare, modeSweep, modeDump:
	default:
		return Config{}, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.Bins <= 0 {
		return Config{}, fmt.Errorf("bins must be positive, got %d", cfg.Bins)
	}

	m, err := parseCSVIntSlice(multiplicities)
	if err != nil {
		return Config{}, err
	}
	cfg.Multiplicities = m
	return cfg, nil
}

// parseCSVIntSlice parses a comma-separated list of ints
func parseCSVIntSlice(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// loadStudy reads the study config and applies command line overrides.
func loadStudy(cfg Config) (*config.StudyConfig, error) {
	study := config.EmptyStudyConfig()
	if cfg.ConfigPath != "" {
		var err error
		if study, err = config.LoadStudyConfig(cfg.ConfigPath); err != nil {
			return nil, err
		}
	}
	if cfg.Jets != 0 {
		study.Jets = &cfg.Jets
	}
	if cfg.Seed != 0 {
		study.Seed = &cfg.Seed
	}
	if cfg.Workers >= 0 {
		study.Workers = &cfg.Workers
	}
	if len(cfg.Multiplicities) > 0 {
		study.SweepMultiplicities = cfg.Multiplicities
	}
	if cfg.SweepJets != 0 {
		study.SweepJets = &cfg.SweepJets
	}
	if err := study.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return study, nil
}

// reconstructors builds the pipelines the mode compares.
func reconstructors(mode string, study *config.StudyConfig) ([]vertex.Reconstructor, error) {
	m, err := minimize.New(study.MinimizerSettings())
	if err != nil {
		return nil, err
	}

	var recs []vertex.Reconstructor
	if mode != modeCSSVF {
		ssvf, err := vertex.NewSSVF(study.FinderParams(), study.FitterParams(), m)
		if err != nil {
			return nil, err
		}
		recs = append(recs, ssvf)
	}
	if mode != modeSSVF {
		cssvf, err := vertex.NewCSSVF(study.ClusterParams(), study.FitterParams(), m)
		if err != nil {
			return nil, err
		}
		recs = append(recs, cssvf)
	}
	return recs, nil
}

func run(ctx context.Context, cfg Config, stdout io.Writer) error {
	monitoring.SetVerbose(cfg.Verbose)

	study, err := loadStudy(cfg)
	if err != nil {
		return err
	}
	recs, err := reconstructors(cfg.Mode, study)
	if err != nil {
		return err
	}
	harness, err := evaluation.NewHarness(evaluation.Config{Workers: study.GetWorkers()}, recs...)
	if err != nil {
		return err
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if cfg.Mode == modeSweep {
		return runSweep(ctx, cfg, study, harness, stdout)
	}

	gen, err := jet.NewGenerator(study.GeneratorParams(), study.GetSeed())
	if err != nil {
		return err
	}
	jets, err := gen.Generate(study.GetJets())
	if err != nil {
		return err
	}

	if cfg.Mode == modeDump {
		return runDump(jets, harness, stdout)
	}

	log.Printf("Evaluating %v on %d jets", harness.Algorithms(), len(jets))
	summary, _, err := harness.Run(ctx, jets)
	if err != nil {
		return err
	}

	if cfg.JSON {
		err = report.WriteJSON(stdout, summary)
	} else {
		err = report.WriteSummary(stdout, summary)
	}
	if err != nil {
		return err
	}

	if cfg.OutputDir == "" {
		return nil
	}
	return writeRunReports(cfg, summary)
}

func runDump(jets []jet.Jet, harness *evaluation.Harness, stdout io.Writer) error {
	for _, j := range jets {
		if err := report.WriteJet(stdout, j); err != nil {
			return err
		}
		if err := report.WriteJetResult(stdout, harness.Evaluate(j)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout); err != nil {
			return err
		}
	}
	return nil
}

func runSweep(ctx context.Context, cfg Config, study *config.StudyConfig, harness *evaluation.Harness, stdout io.Writer) error {
	points, err := harness.Sweep(ctx, evaluation.SweepConfig{
		Multiplicities: study.GetSweepMultiplicities(),
		JetsPerPoint:   study.GetSweepJets(),
		Generator:      study.GeneratorParams(),
		Seed:           study.GetSeed(),
	})
	if err != nil {
		return err
	}

	if cfg.JSON {
		if err := report.WriteJSON(stdout, points); err != nil {
			return err
		}
	} else {
		for _, p := range points {
			if _, err := fmt.Fprintf(stdout, "multiplicity %d (~%d tracks)\n", p.Multiplicity, p.MeanTracks); err != nil {
				return err
			}
			if err := report.WriteSummary(stdout, p.Summary); err != nil {
				return err
			}
		}
	}

	if cfg.OutputDir == "" {
		return nil
	}
	if err := writeFile(filepath.Join(cfg.OutputDir, "sweep.json"), func(w io.Writer) error {
		return report.WriteJSON(w, points)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(cfg.OutputDir, "sweep.html"), func(w io.Writer) error {
		return report.WriteComparisonChart(w, points)
	})
}

// writeRunReports writes summary.json, summary.html and per-algorithm
// error plots to the output directory.
func writeRunReports(cfg Config, summary evaluation.Summary) error {
	if err := writeFile(filepath.Join(cfg.OutputDir, "summary.json"), func(w io.Writer) error {
		return report.WriteJSON(w, summary)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(cfg.OutputDir, "summary.html"), func(w io.Writer) error {
		return report.WriteSummaryChart(w, summary)
	}); err != nil {
		return err
	}

	for _, a := range summary.Algorithms {
		opts := report.HistogramOptions{
			Title: fmt.Sprintf("%s vertex error", a.Algorithm),
			Bins:  cfg.Bins,
			LogY:  cfg.LogY,
		}
		hist := filepath.Join(cfg.OutputDir, a.Algorithm+"_errors.png")
		if err := report.WriteErrorHistogram(hist, a.Errors, opts); err != nil {
			if errors.Is(err, report.ErrNoData) {
				log.Printf("Skipping %s plots: no converged jets", a.Algorithm)
				continue
			}
			return err
		}
		opts.Title = fmt.Sprintf("%s vertex error fractions", a.Algorithm)
		fractions := filepath.Join(cfg.OutputDir, a.Algorithm+"_error_fractions.png")
		if err := report.WriteErrorFractions(fractions, a.Errors, opts); err != nil {
			return err
		}
		log.Printf("Wrote %s and %s", hist, fractions)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
