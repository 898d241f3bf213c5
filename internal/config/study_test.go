package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/vertex.report/internal/jet"
	"github.com/banshee-data/vertex.report/internal/vertex"
	"github.com/banshee-data/vertex.report/internal/vertex/minimize"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestEmptyStudyConfig_Defaults(t *testing.T) {
	cfg := EmptyStudyConfig()

	if cfg.DistanceThreshold != nil {
		t.Errorf("Expected DistanceThreshold to be nil, got %v", *cfg.DistanceThreshold)
	}
	if got := cfg.GetDistanceThreshold(); got != vertex.DefaultDistanceThreshold {
		t.Errorf("GetDistanceThreshold() = %f, want %f", got, vertex.DefaultDistanceThreshold)
	}
	if got := cfg.GetChi2Threshold(); got != vertex.DefaultChi2Threshold {
		t.Errorf("GetChi2Threshold() = %f, want %f", got, vertex.DefaultChi2Threshold)
	}
	if got := cfg.GetInitialGuess(); got != vertex.DefaultInitialGuess {
		t.Errorf("GetInitialGuess() = %v, want %v", got, vertex.DefaultInitialGuess)
	}
	if got := cfg.GetMinimizerMethod(); got != "nelder-mead" {
		t.Errorf("GetMinimizerMethod() = %q, want nelder-mead", got)
	}
	if got := cfg.GetSweepMultiplicities(); len(got) != 6 || got[0] != 2 || got[5] != 10 {
		t.Errorf("GetSweepMultiplicities() = %v, want [2 3 5 6 8 10]", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected empty config to be valid, got %v", err)
	}
}

func TestEmptyStudyConfig_MapsToDefaultParams(t *testing.T) {
	cfg := EmptyStudyConfig()

	if got := cfg.FinderParams(); got != vertex.DefaultFinderParams() {
		t.Errorf("FinderParams() = %+v, want %+v", got, vertex.DefaultFinderParams())
	}
	if got := cfg.FitterParams(); got != vertex.DefaultFitterParams() {
		t.Errorf("FitterParams() = %+v, want %+v", got, vertex.DefaultFitterParams())
	}
	if got := cfg.ClusterParams(); got != vertex.DefaultClusterParams() {
		t.Errorf("ClusterParams() = %+v, want %+v", got, vertex.DefaultClusterParams())
	}
	if got := cfg.MinimizerSettings(); got != minimize.DefaultSettings() {
		t.Errorf("MinimizerSettings() = %+v, want %+v", got, minimize.DefaultSettings())
	}
	if got := cfg.GeneratorParams(); got != jet.DefaultGeneratorParams() {
		t.Errorf("GeneratorParams() = %+v, want %+v", got, jet.DefaultGeneratorParams())
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.DistanceThreshold == nil {
		t.Fatal("Expected distance_threshold in defaults file")
	}
	if *cfg.DistanceThreshold != vertex.DefaultDistanceThreshold {
		t.Errorf("Expected distance_threshold %f, got %f", vertex.DefaultDistanceThreshold, *cfg.DistanceThreshold)
	}
	if got := cfg.FitterParams(); got != vertex.DefaultFitterParams() {
		t.Errorf("FitterParams() = %+v, want %+v", got, vertex.DefaultFitterParams())
	}
	if got := cfg.ClusterParams(); got != vertex.DefaultClusterParams() {
		t.Errorf("ClusterParams() = %+v, want %+v", got, vertex.DefaultClusterParams())
	}
	if got := cfg.GetJets(); got != 100 {
		t.Errorf("GetJets() = %d, want 100", got)
	}
}

func TestLoadStudyConfig_JSON(t *testing.T) {
	path := writeConfig(t, "study.json", `{
		"distance_threshold": 0.01,
		"reject_policy": "consume_nearest",
		"initial_guess": [0, 0, 5],
		"clusters": 2,
		"seed": 42,
		"minimizer_method": "bfgs",
		"tracks_sv": 8
	}`)

	cfg, err := LoadStudyConfig(path)
	if err != nil {
		t.Fatalf("LoadStudyConfig failed: %v", err)
	}
	if got := cfg.FinderParams(); got.DistanceThreshold != 0.01 || got.RejectPolicy != vertex.ConsumeNearest {
		t.Errorf("Expected finder params {0.01 consume_nearest}, got %+v", got)
	}
	if got := cfg.GetInitialGuess(); got.Z != 5 || got.X != 0 {
		t.Errorf("GetInitialGuess() = %v, want {0 0 5}", got)
	}
	if got := cfg.ClusterParams(); got.K != 2 || got.Seed != 42 {
		t.Errorf("Expected cluster params K=2 seed=42, got %+v", got)
	}
	if got := cfg.MinimizerSettings().Method; got != minimize.BFGS {
		t.Errorf("Expected bfgs, got %q", got)
	}
	gp := cfg.GeneratorParams()
	if gp.TracksSV != 8 || gp.TracksPV != jet.DefaultGeneratorParams().TracksPV {
		t.Errorf("Expected TracksSV 8 with default TracksPV, got %+v", gp)
	}
}

func TestLoadStudyConfig_YAML(t *testing.T) {
	path := writeConfig(t, "study.yaml", `
chi2_threshold: 0.2
min_cluster_tracks: 2
workers: 4
sweep_multiplicities: [2, 4]
`)

	cfg, err := LoadStudyConfig(path)
	if err != nil {
		t.Fatalf("LoadStudyConfig failed: %v", err)
	}
	if got := cfg.GetChi2Threshold(); got != 0.2 {
		t.Errorf("GetChi2Threshold() = %f, want 0.2", got)
	}
	if got := cfg.GetMinClusterTracks(); got != 2 {
		t.Errorf("GetMinClusterTracks() = %d, want 2", got)
	}
	if got := cfg.GetWorkers(); got != 4 {
		t.Errorf("GetWorkers() = %d, want 4", got)
	}
	if got := cfg.GetSweepMultiplicities(); len(got) != 2 || got[1] != 4 {
		t.Errorf("GetSweepMultiplicities() = %v, want [2 4]", got)
	}
}

func TestLoadStudyConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad extension", "study.txt", `{}`, "extension"},
		{"bad json", "study.json", `{"distance_threshold":`, "parse config JSON"},
		{"bad yaml", "study.yml", "clusters: [1", "parse config YAML"},
		{"negative threshold", "study.json", `{"distance_threshold": -1}`, "invalid configuration"},
		{"unknown policy", "study.json", `{"reject_policy": "drop_all"}`, "invalid configuration"},
		{"unknown method", "study.json", `{"minimizer_method": "newton"}`, "invalid configuration"},
		{"min tracks", "study.json", `{"min_tracks": 1}`, "invalid configuration"},
		{"non-finite guess", "study.yaml", "initial_guess: [0, .nan, 10]", "invalid configuration"},
		{"bad multiplicity", "study.json", `{"sweep_multiplicities": [2, 0]}`, "invalid configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := LoadStudyConfig(path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadStudyConfig_Missing(t *testing.T) {
	_, err := LoadStudyConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to stat") {
		t.Errorf("Expected stat error, got %v", err)
	}
}

func TestLoadStudyConfig_TooLarge(t *testing.T) {
	big := `{"jets": 1` + strings.Repeat(" ", maxFileSize) + `}`
	path := writeConfig(t, "big.json", big)

	_, err := LoadStudyConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size error, got %v", err)
	}
}

func TestPtrHelpers(t *testing.T) {
	cfg := &StudyConfig{
		DistanceThreshold: ptrFloat64(0.02),
		RejectPolicy:      ptrString("consume_nearest"),
		Clusters:          ptrInt(4),
		Seed:              ptrUint64(9),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.GetDistanceThreshold() != 0.02 || cfg.GetClusters() != 4 || cfg.GetSeed() != 9 {
		t.Errorf("Expected overrides to be returned, got %+v", cfg)
	}
}
