// Package sim drives the simulation: it owns the order book, the
// event scheduler, the agent population, and the attached strategies,
// and advances them through a single-writer step loop.
package sim

import (
	"fmt"

	"lobsim/internal/domain"
	"lobsim/internal/strategy"
)

// Config enumerates everything a run needs. Prices are in cents,
// durations and rates in simulated seconds.
type Config struct {
	Duration     float64 `json:"duration" yaml:"duration"`
	TickSize     int64   `json:"tick_size" yaml:"tick_size"`
	MaxLevels    int     `json:"max_levels" yaml:"max_levels"`
	InitialPrice int64   `json:"initial_price" yaml:"initial_price"`

	NumInformed     int `json:"num_informed" yaml:"num_informed"`
	NumUninformed   int `json:"num_uninformed" yaml:"num_uninformed"`
	NumMarketMakers int `json:"num_market_makers" yaml:"num_market_makers"`

	LambdaInformed    float64 `json:"lambda_informed" yaml:"lambda_informed"`
	LambdaUninformed  float64 `json:"lambda_uninformed" yaml:"lambda_uninformed"`
	LambdaMarketMaker float64 `json:"lambda_market_maker" yaml:"lambda_market_maker"`

	InformedInfoProb float64 `json:"informed_info_prob" yaml:"informed_info_prob"`
	MaxInventory     int64   `json:"max_inventory" yaml:"max_inventory"`

	// Price impact: |Δmid| = ImpactLambda × quantity^ImpactGamma,
	// randomly signed, plus a mean-reversion pull toward the initial
	// price and Gaussian noise of NoiseSigma cents. ImpactDecayTau is
	// the temporary-impact decay time applied between trades.
	ImpactLambda   float64 `json:"impact_lambda" yaml:"impact_lambda"`
	ImpactGamma    float64 `json:"impact_gamma" yaml:"impact_gamma"`
	MeanReversion  float64 `json:"mean_reversion" yaml:"mean_reversion"`
	ImpactDecayTau float64 `json:"impact_decay_tau" yaml:"impact_decay_tau"`
	NoiseSigma     float64 `json:"noise_sigma" yaml:"noise_sigma"`

	// SnapshotInterval is the period between strategy order-generation
	// passes; StaleCancelInterval between market-maker stale sweeps.
	SnapshotInterval    float64 `json:"snapshot_interval" yaml:"snapshot_interval"`
	StaleCancelInterval float64 `json:"stale_cancel_interval" yaml:"stale_cancel_interval"`

	Seed int64 `json:"seed" yaml:"seed"`

	Strategies []strategy.Config `json:"strategies" yaml:"strategies"`
}

// DefaultConfig returns the baseline scenario: a liquid market with a
// small informed population.
func DefaultConfig() Config {
	return Config{
		Duration:            3600,
		TickSize:            1,
		MaxLevels:           10,
		InitialPrice:        10000, // $100.00
		NumInformed:         5,
		NumUninformed:       20,
		NumMarketMakers:     3,
		LambdaInformed:      0.1,
		LambdaUninformed:    0.5,
		LambdaMarketMaker:   0.2,
		InformedInfoProb:    0.1,
		MaxInventory:        1000,
		ImpactLambda:        10, // $0.10 per unit quantity^γ
		ImpactGamma:         0.5,
		MeanReversion:       0.1,
		ImpactDecayTau:      300,
		NoiseSigma:          0.1,
		SnapshotInterval:    5,
		StaleCancelInterval: 30,
		Seed:                1,
	}
}

// Validate checks the configuration and verifies every requested
// strategy name is known. It returns a ConfigError so callers can fail
// the start call synchronously with no partial state.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return &domain.ConfigError{Message: fmt.Sprintf("duration must be positive, got %v", c.Duration)}
	}
	if c.TickSize <= 0 {
		return &domain.ConfigError{Message: fmt.Sprintf("tick_size must be positive, got %d", c.TickSize)}
	}
	if c.InitialPrice <= 0 {
		return &domain.ConfigError{Message: fmt.Sprintf("initial_price must be positive, got %d", c.InitialPrice)}
	}
	if c.MaxLevels <= 0 {
		return &domain.ConfigError{Message: fmt.Sprintf("max_levels must be positive, got %d", c.MaxLevels)}
	}
	if c.NumInformed < 0 || c.NumUninformed < 0 || c.NumMarketMakers < 0 {
		return &domain.ConfigError{Message: "agent counts must not be negative"}
	}
	if c.NumInformed > 0 && c.LambdaInformed <= 0 {
		return &domain.ConfigError{Message: "lambda_informed must be positive"}
	}
	if c.NumUninformed > 0 && c.LambdaUninformed <= 0 {
		return &domain.ConfigError{Message: "lambda_uninformed must be positive"}
	}
	if c.NumMarketMakers > 0 && c.LambdaMarketMaker <= 0 {
		return &domain.ConfigError{Message: "lambda_market_maker must be positive"}
	}
	if c.ImpactGamma < 0 || c.ImpactLambda < 0 {
		return &domain.ConfigError{Message: "impact coefficients must not be negative"}
	}
	if c.ImpactDecayTau <= 0 {
		return &domain.ConfigError{Message: "impact_decay_tau must be positive"}
	}
	if c.SnapshotInterval <= 0 {
		return &domain.ConfigError{Message: "snapshot_interval must be positive"}
	}
	for _, sc := range c.Strategies {
		if _, err := strategy.New(sc.Name, sc); err != nil {
			return &domain.ConfigError{Message: err.Error()}
		}
	}
	return nil
}
