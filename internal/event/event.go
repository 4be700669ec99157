// Package event defines the simulation's event types and the
// causally-ordered scheduler that drives them.
package event

import "lobsim/internal/domain"

// Kind tags the concrete type of an Event.
type Kind string

const (
	KindOrder      Kind = "order"
	KindCancel     Kind = "cancel"
	KindTrade      Kind = "trade"
	KindMarketData Kind = "market_data"
)

// Event is the tagged union consumed by the Scheduler. Every event
// carries a logical timestamp in simulated seconds. The scheduler stamps
// a strictly increasing sequence number on push, so events with equal
// timestamps pop in insertion order.
type Event interface {
	Kind() Kind
	Time() float64
}

// OrderEvent represents a new order being placed.
type OrderEvent struct {
	Timestamp float64
	Order     domain.Order
}

func (e *OrderEvent) Kind() Kind    { return KindOrder }
func (e *OrderEvent) Time() float64 { return e.Timestamp }

// CancelEvent requests removal of a resting order.
type CancelEvent struct {
	Timestamp float64
	OrderID   string
	TraderID  string
}

func (e *CancelEvent) Kind() Kind    { return KindCancel }
func (e *CancelEvent) Time() float64 { return e.Timestamp }

// TradeEvent carries an execution produced outside the normal matching
// path, e.g. injected by a host for testing.
type TradeEvent struct {
	Timestamp float64
	Trade     domain.Trade
}

func (e *TradeEvent) Kind() Kind    { return KindTrade }
func (e *TradeEvent) Time() float64 { return e.Timestamp }

// MarketDataEvent carries a market snapshot scheduled for broadcast.
type MarketDataEvent struct {
	Timestamp float64
	Snapshot  domain.MarketSnapshot
}

func (e *MarketDataEvent) Kind() Kind    { return KindMarketData }
func (e *MarketDataEvent) Time() float64 { return e.Timestamp }
