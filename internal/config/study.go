package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/vertex.report/internal/jet"
	"github.com/banshee-data/vertex.report/internal/vertex"
	"github.com/banshee-data/vertex.report/internal/vertex/minimize"
)

// DefaultConfigPath is the path to the canonical study defaults file.
// This is the single source of truth for all default study values.
const DefaultConfigPath = "config/study.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// StudyConfig is the root configuration of a reconstruction study. Every
// field is optional; the Get* methods fall back to the built-in defaults so
// partial configs are safe. Lengths are in mm.
type StudyConfig struct {
	// Vertex finding and fitting
	DistanceThreshold *float64    `json:"distance_threshold,omitempty" yaml:"distance_threshold,omitempty" validate:"omitempty,gt=0"`
	RejectPolicy      *string     `json:"reject_policy,omitempty" yaml:"reject_policy,omitempty" validate:"omitempty,oneof=keep_nearest consume_nearest"`
	Chi2Threshold     *float64    `json:"chi2_threshold,omitempty" yaml:"chi2_threshold,omitempty" validate:"omitempty,gt=0"`
	InitialGuess      *[3]float64 `json:"initial_guess,omitempty" yaml:"initial_guess,omitempty"`
	MinTracks         *int        `json:"min_tracks,omitempty" yaml:"min_tracks,omitempty" validate:"omitempty,min=2"`
	MinClusterTracks  *int        `json:"min_cluster_tracks,omitempty" yaml:"min_cluster_tracks,omitempty" validate:"omitempty,min=1"`

	// Clustering
	Clusters        *int    `json:"clusters,omitempty" yaml:"clusters,omitempty" validate:"omitempty,min=1"`
	ClusterMaxIter  *int    `json:"cluster_max_iter,omitempty" yaml:"cluster_max_iter,omitempty" validate:"omitempty,min=1"`
	ClusterRestarts *int    `json:"cluster_restarts,omitempty" yaml:"cluster_restarts,omitempty" validate:"omitempty,min=1"`
	Seed            *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"` // 0 or unset seeds from the clock

	// Minimizer
	MinimizerMethod   *string `json:"minimizer_method,omitempty" yaml:"minimizer_method,omitempty" validate:"omitempty,oneof=nelder-mead bfgs"`
	MinimizerMaxIter  *int    `json:"minimizer_max_iter,omitempty" yaml:"minimizer_max_iter,omitempty" validate:"omitempty,min=0"`
	MinimizerMaxEvals *int    `json:"minimizer_max_evals,omitempty" yaml:"minimizer_max_evals,omitempty" validate:"omitempty,min=0"`

	// Jet generation
	Jets         *int `json:"jets,omitempty" yaml:"jets,omitempty" validate:"omitempty,min=1"`
	TracksPV     *int `json:"tracks_pv,omitempty" yaml:"tracks_pv,omitempty" validate:"omitempty,min=0"`
	TracksSV     *int `json:"tracks_sv,omitempty" yaml:"tracks_sv,omitempty" validate:"omitempty,min=0"`
	TracksPileup *int `json:"tracks_pileup,omitempty" yaml:"tracks_pileup,omitempty" validate:"omitempty,min=0"`
	TracksRange  *int `json:"tracks_range,omitempty" yaml:"tracks_range,omitempty" validate:"omitempty,min=0"`

	// Evaluation
	Workers             *int  `json:"workers,omitempty" yaml:"workers,omitempty" validate:"omitempty,min=0"`
	SweepMultiplicities []int `json:"sweep_multiplicities,omitempty" yaml:"sweep_multiplicities,omitempty" validate:"omitempty,dive,min=1"`
	SweepJets           *int  `json:"sweep_jets,omitempty" yaml:"sweep_jets,omitempty" validate:"omitempty,min=1"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyStudyConfig returns a StudyConfig with all fields set to nil.
// Use LoadStudyConfig to load actual values from a file.
func EmptyStudyConfig() *StudyConfig {
	return &StudyConfig{}
}

// LoadStudyConfig loads a StudyConfig from a JSON or YAML file, chosen by
// extension (.json, .yaml, .yml). Files over 1MB are rejected.
func LoadStudyConfig(path string) (*StudyConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyStudyConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical study defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *StudyConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/vertex/kmeans/
	}
	for _, path := range candidates {
		if cfg, err := LoadStudyConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

var validate = validator.New()

// Validate checks field ranges and that the derived component parameters
// are accepted by their constructors.
func (c *StudyConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.FinderParams().Validate(); err != nil {
		return err
	}
	if err := c.FitterParams().Validate(); err != nil {
		return err
	}
	if err := c.ClusterParams().Validate(); err != nil {
		return err
	}
	if err := c.MinimizerSettings().Validate(); err != nil {
		return err
	}
	return c.GeneratorParams().Validate()
}

// GetDistanceThreshold returns the distance_threshold value or the default.
func (c *StudyConfig) GetDistanceThreshold() float64 {
	if c.DistanceThreshold == nil {
		return vertex.DefaultDistanceThreshold
	}
	return *c.DistanceThreshold
}

// GetRejectPolicy returns the reject_policy value or keep_nearest.
func (c *StudyConfig) GetRejectPolicy() string {
	if c.RejectPolicy == nil {
		return vertex.KeepNearest.String()
	}
	return *c.RejectPolicy
}

// GetChi2Threshold returns the chi2_threshold value or the default.
func (c *StudyConfig) GetChi2Threshold() float64 {
	if c.Chi2Threshold == nil {
		return vertex.DefaultChi2Threshold
	}
	return *c.Chi2Threshold
}

// GetInitialGuess returns the initial_guess value or the default.
func (c *StudyConfig) GetInitialGuess() r3.Vec {
	if c.InitialGuess == nil {
		return vertex.DefaultInitialGuess
	}
	g := *c.InitialGuess
	return r3.Vec{X: g[0], Y: g[1], Z: g[2]}
}

// GetMinTracks returns the min_tracks value or the default.
func (c *StudyConfig) GetMinTracks() int {
	if c.MinTracks == nil {
		return vertex.DefaultMinTracks
	}
	return *c.MinTracks
}

// GetMinClusterTracks returns the min_cluster_tracks value or the default.
func (c *StudyConfig) GetMinClusterTracks() int {
	if c.MinClusterTracks == nil {
		return vertex.DefaultMinClusterTracks
	}
	return *c.MinClusterTracks
}

// GetClusters returns the clusters value or the default.
func (c *StudyConfig) GetClusters() int {
	if c.Clusters == nil {
		return vertex.DefaultClusterCount
	}
	return *c.Clusters
}

// GetClusterMaxIter returns the cluster_max_iter value or the default.
func (c *StudyConfig) GetClusterMaxIter() int {
	if c.ClusterMaxIter == nil {
		return vertex.DefaultClusterMaxIter
	}
	return *c.ClusterMaxIter
}

// GetClusterRestarts returns the cluster_restarts value or the default.
func (c *StudyConfig) GetClusterRestarts() int {
	if c.ClusterRestarts == nil {
		return vertex.DefaultClusterRestarts
	}
	return *c.ClusterRestarts
}

// GetSeed returns the seed value or 0.
func (c *StudyConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

// GetMinimizerMethod returns the minimizer_method value or nelder-mead.
func (c *StudyConfig) GetMinimizerMethod() string {
	if c.MinimizerMethod == nil {
		return string(minimize.NelderMead)
	}
	return *c.MinimizerMethod
}

// GetMinimizerMaxIter returns the minimizer_max_iter value or the default.
func (c *StudyConfig) GetMinimizerMaxIter() int {
	if c.MinimizerMaxIter == nil {
		return minimize.DefaultMaxIterations
	}
	return *c.MinimizerMaxIter
}

// GetMinimizerMaxEvals returns the minimizer_max_evals value or the default.
func (c *StudyConfig) GetMinimizerMaxEvals() int {
	if c.MinimizerMaxEvals == nil {
		return minimize.DefaultMaxEvaluations
	}
	return *c.MinimizerMaxEvals
}

// GetJets returns the jets value or 100.
func (c *StudyConfig) GetJets() int {
	if c.Jets == nil {
		return 100
	}
	return *c.Jets
}

// GetWorkers returns the workers value or 0 (one per CPU).
func (c *StudyConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetSweepMultiplicities returns sweep_multiplicities or floor(linspace(2, 10, 6)).
func (c *StudyConfig) GetSweepMultiplicities() []int {
	if len(c.SweepMultiplicities) == 0 {
		return []int{2, 3, 5, 6, 8, 10}
	}
	return c.SweepMultiplicities
}

// GetSweepJets returns the sweep_jets value or 10.
func (c *StudyConfig) GetSweepJets() int {
	if c.SweepJets == nil {
		return 10
	}
	return *c.SweepJets
}

// FinderParams maps the config onto the greedy finder.
func (c *StudyConfig) FinderParams() vertex.FinderParams {
	p := vertex.DefaultFinderParams()
	p.DistanceThreshold = c.GetDistanceThreshold()
	// An unknown policy is caught by the validator tag.
	p.RejectPolicy, _ = vertex.ParseRejectPolicy(c.GetRejectPolicy())
	return p
}

// FitterParams maps the config onto both vertex fitters.
func (c *StudyConfig) FitterParams() vertex.FitterParams {
	return vertex.FitterParams{
		Chi2Threshold:    c.GetChi2Threshold(),
		InitialGuess:     c.GetInitialGuess(),
		MinTracks:        c.GetMinTracks(),
		MinClusterTracks: c.GetMinClusterTracks(),
	}
}

// ClusterParams maps the config onto the feature clusterer.
func (c *StudyConfig) ClusterParams() vertex.ClusterParams {
	return vertex.ClusterParams{
		K:        c.GetClusters(),
		MaxIter:  c.GetClusterMaxIter(),
		Restarts: c.GetClusterRestarts(),
		Seed:     c.GetSeed(),
	}
}

// MinimizerSettings maps the config onto the minimizer.
func (c *StudyConfig) MinimizerSettings() minimize.Settings {
	return minimize.Settings{
		Method:         minimize.Method(c.GetMinimizerMethod()),
		MaxIterations:  c.GetMinimizerMaxIter(),
		MaxEvaluations: c.GetMinimizerMaxEvals(),
	}
}

// GeneratorParams maps the config onto the jet generator.
func (c *StudyConfig) GeneratorParams() jet.GeneratorParams {
	p := jet.DefaultGeneratorParams()
	if c.TracksPV != nil {
		p.TracksPV = *c.TracksPV
	}
	if c.TracksSV != nil {
		p.TracksSV = *c.TracksSV
	}
	if c.TracksPileup != nil {
		p.TracksPileup = *c.TracksPileup
	}
	if c.TracksRange != nil {
		p.TracksRange = *c.TracksRange
	}
	return p
}
