package strategy

import (
	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// MarketMaking posts a symmetric bid/ask inside the spread to capture
// it, sized by the remaining room under the position limit. It only
// quotes when the observed spread is at least the configured minimum.
type MarketMaking struct {
	tracker
}

// NewMarketMaking creates a market making strategy.
func NewMarketMaking(cfg Config) *MarketMaking {
	return &MarketMaking{tracker: newTracker(cfg)}
}

// GenerateOrders posts a bid one tick above the best bid and an ask
// one tick below the best ask when the spread is wide enough to leave
// an edge.
func (s *MarketMaking) GenerateOrders(now float64, snap domain.MarketSnapshot) []*event.OrderEvent {
	s.UpdateMarketData(snap)

	if !snap.HasBid || !snap.HasAsk || s.spread < s.cfg.MinSpread {
		return nil
	}

	var orders []*event.OrderEvent
	if qty := s.buyCapacity(); qty > 0 {
		price := s.bestBid + s.cfg.TickSize
		orders = append(orders, s.newOrder(now, domain.SideBuy, domain.OrderKindLimit, price, qty))
	}
	if qty := s.sellCapacity(); qty > 0 {
		price := s.bestAsk - s.cfg.TickSize
		orders = append(orders, s.newOrder(now, domain.SideSell, domain.OrderKindLimit, price, qty))
	}
	return orders
}
