package strategy

import (
	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// Momentum trades in the direction of the recent price move: when the
// mid has moved more than the threshold over the lookback window, it
// sends a marketable order chasing the move.
type Momentum struct {
	tracker
}

// NewMomentum creates a momentum strategy.
func NewMomentum(cfg Config) *Momentum {
	return &Momentum{tracker: newTracker(cfg)}
}

// GenerateOrders compares the oldest and newest prices in the lookback
// window and chases moves larger than the threshold with a market
// order.
func (s *Momentum) GenerateOrders(now float64, snap domain.MarketSnapshot) []*event.OrderEvent {
	s.UpdateMarketData(snap)

	lookback := s.cfg.LookbackPeriod
	if len(s.priceHistory) < lookback {
		return nil
	}
	window := s.priceHistory[len(s.priceHistory)-lookback:]
	change := window[len(window)-1] - window[0]

	threshold := float64(s.cfg.MomentumThreshold)
	switch {
	case change > threshold:
		if qty := s.buyCapacity(); qty > 0 {
			return []*event.OrderEvent{
				s.newOrder(now, domain.SideBuy, domain.OrderKindMarket, 0, qty),
			}
		}
	case change < -threshold:
		if qty := s.sellCapacity(); qty > 0 {
			return []*event.OrderEvent{
				s.newOrder(now, domain.SideSell, domain.OrderKindMarket, 0, qty),
			}
		}
	}
	return nil
}
