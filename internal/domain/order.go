package domain

// OrderKind distinguishes limit orders from market orders.
type OrderKind string

const (
	OrderKindLimit  OrderKind = "limit"
	OrderKindMarket OrderKind = "market"
)

// Side indicates whether an order buys or sells.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Order represents a buy or sell instruction submitted by a trader.
// Prices are in cents; ArrivalTime is simulated seconds since run start.
//
// VisibleQuantity is the matchable portion resting on the book;
// HiddenQuantity is the undisclosed iceberg reserve. Plain orders carry
// zero hidden quantity. DisclosedQuantity records the iceberg clip size
// so the visible portion can be replenished after it is consumed.
type Order struct {
	OrderID           string
	TraderID          string
	Side              Side
	Kind              OrderKind
	Price             int64 // cents, 0 for market orders
	Quantity          int64 // original total quantity
	VisibleQuantity   int64
	HiddenQuantity    int64
	DisclosedQuantity int64
	ArrivalTime       float64
}

// Remaining returns the total unfilled quantity, visible plus hidden.
func (o *Order) Remaining() int64 {
	return o.VisibleQuantity + o.HiddenQuantity
}

// IsIceberg reports whether the order discloses only part of its quantity.
func (o *Order) IsIceberg() bool {
	return o.HiddenQuantity > 0
}
