package agent

import (
	"math/rand"

	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// staleOrderAge is how long a market maker's resting quote lives
// before CancelStaleOrders will pull it.
const staleOrderAge = 60.0

// MarketMaker provides liquidity with a symmetric quote around the
// mid. The quoted spread widens as inventory deviates from its target,
// and the side quoted next is biased toward reducing that deviation.
type MarketMaker struct {
	trader

	inventoryTarget int64
	maxInventory    int64
	minSpread       int64 // cents
	maxSpread       int64 // cents

	quoteBid int64
	quoteAsk int64

	mid      float64 // cents, tracks the latest snapshot
	tickSize int64

	// open order id → placement time, for stale-quote cancellation
	open map[string]float64
}

// NewMarketMaker creates a market maker quoting around initialPrice
// until snapshots arrive.
func NewMarketMaker(id string, arrivalRate float64, inventoryTarget, maxInventory int64, initialPrice, tickSize int64, rng *rand.Rand) *MarketMaker {
	mm := &MarketMaker{
		trader:          trader{id: id, arrivalRate: arrivalRate, rng: rng},
		inventoryTarget: inventoryTarget,
		maxInventory:    maxInventory,
		minSpread:       2 * tickSize,
		maxSpread:       50 * tickSize,
		mid:             float64(initialPrice),
		tickSize:        tickSize,
		open:            make(map[string]float64),
	}
	mm.updateQuotes()
	return mm
}

// NextEvent samples the next Poisson arrival, refreshes the quote, and
// posts a limit order on the side that pulls inventory toward target.
func (m *MarketMaker) NextEvent(now float64) event.Event {
	ts := m.nextArrival(now)
	m.updateQuotes()

	var side domain.Side
	var price int64
	switch {
	case m.inventory < m.inventoryTarget:
		side = domain.SideBuy
		price = m.quoteBid
	case m.inventory > m.inventoryTarget:
		side = domain.SideSell
		price = m.quoteAsk
	default:
		if m.rng.Intn(2) == 0 {
			side = domain.SideBuy
			price = m.quoteBid
		} else {
			side = domain.SideSell
			price = m.quoteAsk
		}
	}

	maxQty := m.inventoryTarget - m.inventory
	if maxQty < 0 {
		maxQty = -maxQty
	}
	if maxQty > 50 {
		maxQty = 50
	}
	if maxQty < 10 {
		maxQty = 10
	}

	id := m.nextOrderID()
	m.open[id] = ts

	return &event.OrderEvent{
		Timestamp: ts,
		Order: domain.Order{
			OrderID:     id,
			TraderID:    m.id,
			Side:        side,
			Kind:        domain.OrderKindLimit,
			Price:       price,
			Quantity:    m.randQuantity(10, maxQty),
			ArrivalTime: ts,
		},
	}
}

// updateQuotes recomputes the symmetric quote around the current mid.
// The half-spread grows with inventory skew, clamped to the configured
// band, and the whole quote leans a tick toward unwinding inventory.
func (m *MarketMaker) updateQuotes() {
	skew := 0.0
	if m.maxInventory > 0 {
		skew = float64(m.inventory-m.inventoryTarget) / float64(m.maxInventory)
	}

	spread := float64(m.minSpread) * (1 + 25*absFloat(skew))
	if spread > float64(m.maxSpread) {
		spread = float64(m.maxSpread)
	}

	m.quoteBid = domain.RoundToTick(m.mid-spread/2, m.tickSize)
	m.quoteAsk = domain.RoundToTick(m.mid+spread/2, m.tickSize)
	if m.quoteAsk <= m.quoteBid {
		m.quoteAsk = m.quoteBid + m.tickSize
	}

	// Lean toward the target: long inventory lowers the ask, short
	// inventory raises the bid.
	if m.inventory > m.inventoryTarget {
		m.quoteAsk -= m.tickSize
		if m.quoteAsk <= m.quoteBid {
			m.quoteBid = m.quoteAsk - m.tickSize
		}
	} else if m.inventory < m.inventoryTarget {
		m.quoteBid += m.tickSize
		if m.quoteBid >= m.quoteAsk {
			m.quoteAsk = m.quoteBid + m.tickSize
		}
	}
}

// OnMarketUpdate re-centers the quote on the latest mid.
func (m *MarketMaker) OnMarketUpdate(snap domain.MarketSnapshot) {
	if snap.MidPrice > 0 {
		m.mid = snap.MidPrice
	}
	m.updateQuotes()
}

// CancelStaleOrders returns a cancel for the oldest open quote that
// has outlived staleOrderAge, or nil when none qualify. The order is
// removed from the open set so repeated calls walk through all stale
// quotes one at a time.
func (m *MarketMaker) CancelStaleOrders(now float64) *event.CancelEvent {
	var oldestID string
	oldestAt := now
	for id, placedAt := range m.open {
		if now-placedAt > staleOrderAge && placedAt < oldestAt {
			oldestID = id
			oldestAt = placedAt
		}
	}
	if oldestID == "" {
		return nil
	}
	delete(m.open, oldestID)
	return &event.CancelEvent{
		Timestamp: now,
		OrderID:   oldestID,
		TraderID:  m.id,
	}
}

// Quotes returns the market maker's current bid and ask.
func (m *MarketMaker) Quotes() (bid, ask int64) {
	return m.quoteBid, m.quoteAsk
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
