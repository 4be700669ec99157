package strategy

import (
	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// MeanReversion trades against deviations from the rolling mean: when
// the mid strays more than the threshold from the lookback-window
// average, it sends a marketable order betting on a reversion.
type MeanReversion struct {
	tracker
}

// NewMeanReversion creates a mean reversion strategy.
func NewMeanReversion(cfg Config) *MeanReversion {
	return &MeanReversion{tracker: newTracker(cfg)}
}

// GenerateOrders fades moves away from the rolling mean with a market
// order in the opposite direction.
func (s *MeanReversion) GenerateOrders(now float64, snap domain.MarketSnapshot) []*event.OrderEvent {
	s.UpdateMarketData(snap)

	lookback := s.cfg.LookbackPeriod
	if len(s.priceHistory) < lookback {
		return nil
	}
	window := s.priceHistory[len(s.priceHistory)-lookback:]
	mean := 0.0
	for _, p := range window {
		mean += p
	}
	mean /= float64(len(window))
	deviation := s.refPrice - mean

	threshold := float64(s.cfg.MeanReversionThreshold)
	switch {
	case deviation > threshold:
		// Price above the mean: sell the reversion.
		if qty := s.sellCapacity(); qty > 0 {
			return []*event.OrderEvent{
				s.newOrder(now, domain.SideSell, domain.OrderKindMarket, 0, qty),
			}
		}
	case deviation < -threshold:
		if qty := s.buyCapacity(); qty > 0 {
			return []*event.OrderEvent{
				s.newOrder(now, domain.SideBuy, domain.OrderKindMarket, 0, qty),
			}
		}
	}
	return nil
}
