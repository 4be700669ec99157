package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lobsim/internal/domain"
	"lobsim/internal/sim"
	"lobsim/internal/strategy"
)

// Scenario is the YAML shape of a simulation scenario. Monetary fields
// are dollar-denominated for readability and converted to cents when
// building the sim config. Zero-valued fields inherit the default
// scenario's value.
type Scenario struct {
	Duration     float64  `yaml:"duration"`
	TickSize     *float64 `yaml:"tick_size"`
	MaxLevels    int      `yaml:"max_levels"`
	InitialPrice *float64 `yaml:"initial_price"`

	NumInformed     *int `yaml:"num_informed"`
	NumUninformed   *int `yaml:"num_uninformed"`
	NumMarketMakers *int `yaml:"num_market_makers"`

	LambdaInformed    float64 `yaml:"lambda_informed"`
	LambdaUninformed  float64 `yaml:"lambda_uninformed"`
	LambdaMarketMaker float64 `yaml:"lambda_market_maker"`

	InformedInfoProb float64 `yaml:"informed_info_prob"`
	MaxInventory     int64   `yaml:"max_inventory"`

	ImpactLambda   *float64 `yaml:"impact_lambda"`
	ImpactGamma    float64  `yaml:"impact_gamma"`
	MeanReversion  float64  `yaml:"mean_reversion"`
	ImpactDecayTau float64  `yaml:"impact_decay_tau"`
	NoiseSigma     *float64 `yaml:"noise_sigma"`

	SnapshotInterval    float64 `yaml:"snapshot_interval"`
	StaleCancelInterval float64 `yaml:"stale_cancel_interval"`

	Seed int64 `yaml:"seed"`

	Strategies []ScenarioStrategy `yaml:"strategies"`
}

// ScenarioStrategy is the YAML shape of one attached strategy.
// Thresholds and spreads are in dollars.
type ScenarioStrategy struct {
	Name                   string  `yaml:"name"`
	MaxPosition            int64   `yaml:"max_position"`
	MaxOrderSize           int64   `yaml:"max_order_size"`
	MinSpread              float64 `yaml:"min_spread"`
	LookbackPeriod         int     `yaml:"lookback_period"`
	MomentumThreshold      float64 `yaml:"momentum_threshold"`
	MeanReversionThreshold float64 `yaml:"mean_reversion_threshold"`
	ArbitrageThreshold     float64 `yaml:"arbitrage_threshold"`
	InitialCapital         float64 `yaml:"initial_capital"`
}

// LoadScenario reads a YAML scenario file and merges it over the
// default scenario, converting dollar fields to cents.
func LoadScenario(path string) (sim.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Config{}, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sim.Config{}, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	cfg, err := sc.Build()
	if err != nil {
		return sim.Config{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return cfg, nil
}

// Build converts the scenario to a sim config, starting from the
// default configuration.
func (s Scenario) Build() (sim.Config, error) {
	cfg := sim.DefaultConfig()

	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.TickSize != nil {
		cents, err := domain.DollarsToCents(*s.TickSize)
		if err != nil {
			return sim.Config{}, fmt.Errorf("tick_size: %w", err)
		}
		cfg.TickSize = cents
	}
	if s.MaxLevels > 0 {
		cfg.MaxLevels = s.MaxLevels
	}
	if s.InitialPrice != nil {
		cents, err := domain.DollarsToCents(*s.InitialPrice)
		if err != nil {
			return sim.Config{}, fmt.Errorf("initial_price: %w", err)
		}
		cfg.InitialPrice = cents
	}

	if s.NumInformed != nil {
		cfg.NumInformed = *s.NumInformed
	}
	if s.NumUninformed != nil {
		cfg.NumUninformed = *s.NumUninformed
	}
	if s.NumMarketMakers != nil {
		cfg.NumMarketMakers = *s.NumMarketMakers
	}

	if s.LambdaInformed > 0 {
		cfg.LambdaInformed = s.LambdaInformed
	}
	if s.LambdaUninformed > 0 {
		cfg.LambdaUninformed = s.LambdaUninformed
	}
	if s.LambdaMarketMaker > 0 {
		cfg.LambdaMarketMaker = s.LambdaMarketMaker
	}

	if s.InformedInfoProb > 0 {
		cfg.InformedInfoProb = s.InformedInfoProb
	}
	if s.MaxInventory > 0 {
		cfg.MaxInventory = s.MaxInventory
	}

	if s.ImpactLambda != nil {
		cents, err := domain.DollarsToCents(*s.ImpactLambda)
		if err != nil {
			return sim.Config{}, fmt.Errorf("impact_lambda: %w", err)
		}
		cfg.ImpactLambda = float64(cents)
	}
	if s.ImpactGamma > 0 {
		cfg.ImpactGamma = s.ImpactGamma
	}
	if s.MeanReversion > 0 {
		cfg.MeanReversion = s.MeanReversion
	}
	if s.ImpactDecayTau > 0 {
		cfg.ImpactDecayTau = s.ImpactDecayTau
	}
	if s.NoiseSigma != nil {
		// Noise is fractional cents; no 2-decimal restriction applies.
		cfg.NoiseSigma = *s.NoiseSigma * 100
	}

	if s.SnapshotInterval > 0 {
		cfg.SnapshotInterval = s.SnapshotInterval
	}
	if s.StaleCancelInterval > 0 {
		cfg.StaleCancelInterval = s.StaleCancelInterval
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}

	for _, ss := range s.Strategies {
		stratCfg, err := ss.build(cfg.TickSize)
		if err != nil {
			return sim.Config{}, err
		}
		cfg.Strategies = append(cfg.Strategies, stratCfg)
	}

	return cfg, nil
}

func (s ScenarioStrategy) build(tickSize int64) (strategy.Config, error) {
	cfg := strategy.Config{
		Name:           s.Name,
		MaxPosition:    s.MaxPosition,
		MaxOrderSize:   s.MaxOrderSize,
		LookbackPeriod: s.LookbackPeriod,
		TickSize:       tickSize,
		InitialCapital: s.InitialCapital,
	}

	fields := []struct {
		name    string
		dollars float64
		dst     *int64
	}{
		{"min_spread", s.MinSpread, &cfg.MinSpread},
		{"momentum_threshold", s.MomentumThreshold, &cfg.MomentumThreshold},
		{"mean_reversion_threshold", s.MeanReversionThreshold, &cfg.MeanReversionThreshold},
		{"arbitrage_threshold", s.ArbitrageThreshold, &cfg.ArbitrageThreshold},
	}
	for _, f := range fields {
		if f.dollars == 0 {
			continue
		}
		cents, err := domain.DollarsToCents(f.dollars)
		if err != nil {
			return strategy.Config{}, fmt.Errorf("strategy %s %s: %w", s.Name, f.name, err)
		}
		*f.dst = cents
	}

	return cfg, nil
}
