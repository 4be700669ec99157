package strategy

import (
	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// Arbitrage captures abnormally wide spreads by posting a bid above
// the best bid and an ask below the best ask simultaneously, earning
// the gap when both legs fill.
type Arbitrage struct {
	tracker
}

// NewArbitrage creates an arbitrage strategy.
func NewArbitrage(cfg Config) *Arbitrage {
	return &Arbitrage{tracker: newTracker(cfg)}
}

// GenerateOrders posts both legs when the observed spread exceeds the
// threshold by enough to leave room for two ticks of improvement.
func (s *Arbitrage) GenerateOrders(now float64, snap domain.MarketSnapshot) []*event.OrderEvent {
	s.UpdateMarketData(snap)

	if !snap.HasBid || !snap.HasAsk || s.spread <= s.cfg.ArbitrageThreshold {
		return nil
	}

	var orders []*event.OrderEvent
	if qty := s.buyCapacity(); qty > 0 {
		orders = append(orders, s.newOrder(now, domain.SideBuy, domain.OrderKindLimit, s.bestBid+s.cfg.TickSize, qty))
	}
	if qty := s.sellCapacity(); qty > 0 {
		orders = append(orders, s.newOrder(now, domain.SideSell, domain.OrderKindLimit, s.bestAsk-s.cfg.TickSize, qty))
	}
	return orders
}
