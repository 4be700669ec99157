package strategy

import (
	"fmt"
	"sort"

	"lobsim/internal/domain"
)

// factory builds a strategy from its config.
type factory func(Config) Strategy

var factories = map[string]factory{
	"market_making":  func(cfg Config) Strategy { return NewMarketMaking(cfg) },
	"momentum":       func(cfg Config) Strategy { return NewMomentum(cfg) },
	"mean_reversion": func(cfg Config) Strategy { return NewMeanReversion(cfg) },
	"arbitrage":      func(cfg Config) Strategy { return NewArbitrage(cfg) },
}

// New creates a strategy instance by name. Unknown names return
// ErrUnknownStrategy so the caller can fail configuration
// synchronously.
func New(name string, cfg Config) (Strategy, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStrategy, name)
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	return f(cfg), nil
}

// List returns the available strategy names in sorted order.
func List() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
