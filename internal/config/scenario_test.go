package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing scenario: %v", err)
	}
	return path
}

func TestLoadScenario_DollarsConvertToCents(t *testing.T) {
	path := writeScenario(t, `
duration: 600
initial_price: 50.25
tick_size: 0.05
seed: 7
num_informed: 2
num_uninformed: 8
num_market_makers: 1
`)

	cfg, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if cfg.Duration != 600 {
		t.Errorf("Duration = %v, want 600", cfg.Duration)
	}
	if cfg.InitialPrice != 5025 {
		t.Errorf("InitialPrice = %d cents, want 5025", cfg.InitialPrice)
	}
	if cfg.TickSize != 5 {
		t.Errorf("TickSize = %d cents, want 5", cfg.TickSize)
	}
	if cfg.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.Seed)
	}
	if cfg.NumInformed != 2 || cfg.NumUninformed != 8 || cfg.NumMarketMakers != 1 {
		t.Errorf("agent counts = %d/%d/%d, want 2/8/1",
			cfg.NumInformed, cfg.NumUninformed, cfg.NumMarketMakers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded scenario should validate: %v", err)
	}
}

func TestLoadScenario_OmittedFieldsKeepDefaults(t *testing.T) {
	path := writeScenario(t, `
duration: 120
`)

	cfg, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if cfg.Duration != 120 {
		t.Errorf("Duration = %v, want 120", cfg.Duration)
	}
	if cfg.InitialPrice != 10000 {
		t.Errorf("InitialPrice = %d, want default 10000", cfg.InitialPrice)
	}
	if cfg.NumUninformed != 20 {
		t.Errorf("NumUninformed = %d, want default 20", cfg.NumUninformed)
	}
}

func TestLoadScenario_ZeroAgentCountOverridesDefault(t *testing.T) {
	path := writeScenario(t, `
num_informed: 0
num_uninformed: 0
num_market_makers: 0
`)

	cfg, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if cfg.NumInformed != 0 || cfg.NumUninformed != 0 || cfg.NumMarketMakers != 0 {
		t.Errorf("agent counts = %d/%d/%d, want 0/0/0",
			cfg.NumInformed, cfg.NumUninformed, cfg.NumMarketMakers)
	}
}

func TestLoadScenario_Strategies(t *testing.T) {
	path := writeScenario(t, `
strategies:
  - name: market_making
    max_position: 500
    min_spread: 0.03
  - name: momentum
    lookback_period: 10
    momentum_threshold: 0.02
`)

	cfg, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if len(cfg.Strategies) != 2 {
		t.Fatalf("strategies = %d, want 2", len(cfg.Strategies))
	}

	mm := cfg.Strategies[0]
	if mm.Name != "market_making" || mm.MaxPosition != 500 {
		t.Errorf("first strategy = %+v", mm)
	}
	if mm.MinSpread != 3 {
		t.Errorf("MinSpread = %d cents, want 3", mm.MinSpread)
	}
	if mm.TickSize != cfg.TickSize {
		t.Errorf("TickSize = %d, want inherited %d", mm.TickSize, cfg.TickSize)
	}

	mom := cfg.Strategies[1]
	if mom.LookbackPeriod != 10 || mom.MomentumThreshold != 2 {
		t.Errorf("second strategy = %+v", mom)
	}
}

func TestLoadScenario_Errors(t *testing.T) {
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}

	badYAML := writeScenario(t, "duration: [not a number")
	if _, err := LoadScenario(badYAML); err == nil {
		t.Error("malformed YAML should fail")
	}

	badPrice := writeScenario(t, "initial_price: 10.001\n")
	if _, err := LoadScenario(badPrice); err == nil {
		t.Error("sub-cent price should fail")
	}
}
