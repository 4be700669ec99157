package agent

import (
	"math/rand"

	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// Information decay and expiry applied on each market update.
const (
	infoDecay  = 0.99
	infoExpiry = 0.001
)

// Informed is a trader that intermittently receives private
// information about the price direction. While informed it trades
// larger size, biases its side and price toward its information, and
// favors marketable orders. The information strength decays
// geometrically on every market update until the agent reverts to
// uninformed behavior.
type Informed struct {
	trader

	infoProb     float64
	hasInfo      bool
	infoDir      int     // -1 bearish, +1 bullish
	infoStrength float64 // relative price edge, e.g. 0.03 = 3%

	refPrice float64 // cents, tracks the latest snapshot mid
	tickSize int64
}

// NewInformed creates an informed trader. initialPrice seeds the
// reference price used before any snapshot arrives.
func NewInformed(id string, arrivalRate, infoProb float64, initialPrice, tickSize int64, rng *rand.Rand) *Informed {
	return &Informed{
		trader:   trader{id: id, arrivalRate: arrivalRate, rng: rng},
		infoProb: infoProb,
		refPrice: float64(initialPrice),
		tickSize: tickSize,
	}
}

// NextEvent samples the next Poisson arrival and generates an order
// shaped by the agent's current information state.
func (a *Informed) NextEvent(now float64) event.Event {
	ts := a.nextArrival(now)

	// On each arrival the agent may (re)sample private information.
	if a.rng.Float64() < a.infoProb {
		a.hasInfo = true
		if a.rng.Intn(2) == 0 {
			a.infoDir = -1
		} else {
			a.infoDir = 1
		}
		a.infoStrength = 0.01 + a.rng.Float64()*0.04
	}

	side := a.chooseSide()
	return &event.OrderEvent{
		Timestamp: ts,
		Order: domain.Order{
			OrderID:     a.nextOrderID(),
			TraderID:    a.id,
			Side:        side,
			Kind:        a.chooseKind(),
			Price:       a.choosePrice(side),
			Quantity:    a.chooseQuantity(),
			ArrivalTime: ts,
		},
	}
}

func (a *Informed) chooseSide() domain.Side {
	if a.hasInfo {
		if a.infoDir > 0 {
			return domain.SideBuy
		}
		return domain.SideSell
	}
	if a.rng.Intn(2) == 0 {
		return domain.SideBuy
	}
	return domain.SideSell
}

func (a *Informed) choosePrice(side domain.Side) int64 {
	var adj float64
	if a.hasInfo {
		// Informed traders price aggressively in their direction.
		adj = a.infoStrength
		if side == domain.SideSell {
			adj = -adj
		}
	} else {
		adj = -0.02 + a.rng.Float64()*0.04
	}
	return domain.RoundToTick(a.refPrice*(1+adj), a.tickSize)
}

func (a *Informed) chooseQuantity() int64 {
	if a.hasInfo {
		return a.randQuantity(100, 500)
	}
	return a.randQuantity(10, 100)
}

func (a *Informed) chooseKind() domain.OrderKind {
	marketWeight := 0.3
	if a.hasInfo {
		marketWeight = 0.7
	}
	if a.rng.Float64() < marketWeight {
		return domain.OrderKindMarket
	}
	return domain.OrderKindLimit
}

// OnMarketUpdate tracks the reference price and decays the private
// information edge; stale information is discarded.
func (a *Informed) OnMarketUpdate(snap domain.MarketSnapshot) {
	if snap.MidPrice > 0 {
		a.refPrice = snap.MidPrice
	}
	if a.hasInfo {
		a.infoStrength *= infoDecay
		if a.infoStrength < infoExpiry {
			a.hasInfo = false
			a.infoDir = 0
			a.infoStrength = 0
		}
	}
}

// HasInformation reports whether the agent currently holds an active
// private signal.
func (a *Informed) HasInformation() bool { return a.hasInfo }
