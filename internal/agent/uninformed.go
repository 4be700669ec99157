package agent

import (
	"math/rand"

	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// Uninformed is a noise trader: side, price offset, quantity, and
// order kind are drawn independently with fixed weights. It never uses
// market data, so its price band stays anchored on the initial price.
type Uninformed struct {
	trader

	basePrice float64 // cents, fixed at construction
	tickSize  int64
}

// NewUninformed creates a noise trader quoting around initialPrice.
func NewUninformed(id string, arrivalRate float64, initialPrice, tickSize int64, rng *rand.Rand) *Uninformed {
	return &Uninformed{
		trader:    trader{id: id, arrivalRate: arrivalRate, rng: rng},
		basePrice: float64(initialPrice),
		tickSize:  tickSize,
	}
}

// NextEvent samples the next Poisson arrival and draws a random order.
func (a *Uninformed) NextEvent(now float64) event.Event {
	ts := a.nextArrival(now)

	side := domain.SideBuy
	if a.rng.Intn(2) == 1 {
		side = domain.SideSell
	}

	adj := -0.01 + a.rng.Float64()*0.02
	price := domain.RoundToTick(a.basePrice*(1+adj), a.tickSize)

	kind := domain.OrderKindLimit
	if a.rng.Float64() < 0.2 {
		kind = domain.OrderKindMarket
	}

	return &event.OrderEvent{
		Timestamp: ts,
		Order: domain.Order{
			OrderID:     a.nextOrderID(),
			TraderID:    a.id,
			Side:        side,
			Kind:        kind,
			Price:       price,
			Quantity:    a.randQuantity(10, 100),
			ArrivalTime: ts,
		},
	}
}

// OnMarketUpdate is a no-op: noise traders ignore market data.
func (a *Uninformed) OnMarketUpdate(domain.MarketSnapshot) {}
