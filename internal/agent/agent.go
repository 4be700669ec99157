// Package agent implements the stochastic order-flow generators that
// populate the simulated market: informed traders, uninformed (noise)
// traders, and inventory-aware market makers.
package agent

import (
	"fmt"
	"math/rand"

	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// Agent is a market participant. NextEvent produces the agent's next
// scheduled action; its timestamp is strictly greater than the agent's
// previous event timestamp. OnMarketUpdate delivers the latest market
// snapshot; OnTrade notifies the agent of one of its own fills.
type Agent interface {
	ID() string
	NextEvent(now float64) event.Event
	OnMarketUpdate(snap domain.MarketSnapshot)
	OnTrade(price, quantity int64, side domain.Side)
}

// minTimeStep is the clamp applied when a sampled inter-arrival would
// not advance the agent's clock.
const minTimeStep = 1e-4

// trader holds the state common to every agent: identity, Poisson
// arrival rate, the shared seeded generator, and a running cash and
// inventory account updated by trade notifications.
type trader struct {
	id          string
	arrivalRate float64
	rng         *rand.Rand

	cash        float64 // cents
	inventory   int64
	lastPrice   int64
	lastEvent   float64
	orderSerial int
}

func (t *trader) ID() string { return t.id }

// Cash returns the agent's running cash balance in cents. Agents start
// flat at zero; buys draw it down, sells build it up.
func (t *trader) Cash() float64 { return t.cash }

// Inventory returns the agent's signed position.
func (t *trader) Inventory() int64 { return t.inventory }

// PnL returns cash plus inventory marked at the last traded price.
func (t *trader) PnL() float64 {
	return t.cash + float64(t.inventory*t.lastPrice)
}

// OnTrade updates the agent's cash and inventory for one of its fills.
func (t *trader) OnTrade(price, quantity int64, side domain.Side) {
	if side == domain.SideBuy {
		t.inventory += quantity
		t.cash -= float64(price * quantity)
	} else {
		t.inventory -= quantity
		t.cash += float64(price * quantity)
	}
	t.lastPrice = price
}

// nextArrival samples the agent's next action time from an
// Exponential(λ) inter-arrival distribution, clamped so the returned
// time strictly exceeds both now and the agent's previous event time.
func (t *trader) nextArrival(now float64) float64 {
	interarrival := t.rng.ExpFloat64() / t.arrivalRate
	next := now
	if t.lastEvent > next {
		next = t.lastEvent
	}
	next += interarrival
	if next <= t.lastEvent || next <= now {
		next = now + minTimeStep
	}
	t.lastEvent = next
	return next
}

// nextOrderID returns an order ID unique within this agent.
func (t *trader) nextOrderID() string {
	t.orderSerial++
	return fmt.Sprintf("%s_order_%d", t.id, t.orderSerial)
}

// randQuantity draws a uniform integer quantity in [lo, hi].
func (t *trader) randQuantity(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + t.rng.Int63n(hi-lo+1)
}
