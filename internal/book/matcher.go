package book

import (
	"fmt"

	"lobsim/internal/domain"
)

// AddOrder processes an incoming order through the matching engine.
// It validates the order, drains crossing liquidity from the opposite
// side oldest-first, and rests any unfilled limit remainder at its
// price. Market order residuals are never rested: the unfilled
// quantity is simply not executed.
//
// Trades execute at the resting (maker) order's price. The returned
// slice holds the executions in match order; they are also appended to
// the book's trade log.
func (b *Book) AddOrder(o *domain.Order, now float64) ([]domain.Trade, error) {
	if err := b.validate(o); err != nil {
		return nil, err
	}

	// Normalize visible/hidden split. Plain orders disclose everything.
	if o.VisibleQuantity == 0 {
		o.VisibleQuantity = o.Quantity - o.HiddenQuantity
	}
	o.DisclosedQuantity = o.VisibleQuantity

	remaining := o.Quantity
	var trades []domain.Trade

	for remaining > 0 {
		resting, ok := b.bestOpposite(o.Side)
		if !ok {
			break
		}
		if o.Kind == domain.OrderKindLimit && !crosses(o, resting.Price) {
			break
		}

		fill := remaining
		if resting.VisibleQuantity < fill {
			fill = resting.VisibleQuantity
		}

		tr := domain.Trade{
			TradeID:   fmt.Sprintf("trade_%d", len(b.trades)),
			Price:     resting.Price,
			Quantity:  fill,
			Timestamp: now,
		}
		if o.Side == domain.SideBuy {
			tr.BuyOrderID = o.OrderID
			tr.SellOrderID = resting.OrderID
		} else {
			tr.BuyOrderID = resting.OrderID
			tr.SellOrderID = o.OrderID
		}
		trades = append(trades, tr)
		b.trades = append(b.trades, tr)

		remaining -= fill
		resting.VisibleQuantity -= fill

		if resting.VisibleQuantity == 0 {
			b.remove(resting.OrderID)
			if resting.HiddenQuantity > 0 {
				// Iceberg replenish: disclose the next clip and requeue
				// at the tail of the price level.
				clip := resting.DisclosedQuantity
				if resting.HiddenQuantity < clip {
					clip = resting.HiddenQuantity
				}
				resting.VisibleQuantity = clip
				resting.HiddenQuantity -= clip
				b.insert(resting)
			}
		}
	}

	// Residual handling: limit remainders rest, market remainders drop.
	if remaining > 0 && o.Kind == domain.OrderKindLimit {
		o.VisibleQuantity = remaining
		o.HiddenQuantity = 0
		if o.DisclosedQuantity < remaining {
			o.VisibleQuantity = o.DisclosedQuantity
			o.HiddenQuantity = remaining - o.DisclosedQuantity
		}
		b.insert(o)
	} else {
		o.VisibleQuantity = 0
		o.HiddenQuantity = 0
	}

	if err := b.checkUncrossed(); err != nil {
		return trades, err
	}
	return trades, nil
}

// validate applies admission checks: known side, positive quantity,
// positive price for limit orders, sane iceberg split, unique ID.
func (b *Book) validate(o *domain.Order) error {
	if !o.Side.Valid() {
		return fmt.Errorf("%w: unknown side %q", domain.ErrInvalidOrder, o.Side)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity %d must be positive", domain.ErrInvalidOrder, o.Quantity)
	}
	if o.Kind == domain.OrderKindLimit && o.Price <= 0 {
		return fmt.Errorf("%w: price %d must be positive", domain.ErrInvalidOrder, o.Price)
	}
	if o.HiddenQuantity < 0 || o.HiddenQuantity >= o.Quantity {
		return fmt.Errorf("%w: hidden quantity %d out of range", domain.ErrInvalidOrder, o.HiddenQuantity)
	}
	if _, ok := b.index[o.OrderID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateOrderID, o.OrderID)
	}
	return nil
}

// bestOpposite returns the oldest order at the opposite side's best
// price, i.e. the next maker in price-time priority.
func (b *Book) bestOpposite(side domain.Side) (*domain.Order, bool) {
	var e entry
	var ok bool
	if side == domain.SideBuy {
		e, ok = b.asks.Min()
	} else {
		e, ok = b.bids.Min()
	}
	if !ok {
		return nil, false
	}
	return e.Order, true
}

// crosses reports whether a limit order's price reaches the given
// opposite best price.
func crosses(o *domain.Order, oppositeBest int64) bool {
	if o.Side == domain.SideBuy {
		return o.Price >= oppositeBest
	}
	return o.Price <= oppositeBest
}

// checkUncrossed is a defensive invariant check: after every mutation,
// a populated book must satisfy best_bid < best_ask.
func (b *Book) checkUncrossed() error {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if hasBid && hasAsk && bid >= ask {
		return fmt.Errorf("book invariant violated: best_bid %d >= best_ask %d", bid, ask)
	}
	return nil
}

// CancelOrder removes the order from its price level. It returns false
// when the ID is unknown: cancelling an already-filled or
// already-cancelled order is a benign race, not an error.
func (b *Book) CancelOrder(orderID string) bool {
	if _, ok := b.index[orderID]; !ok {
		return false
	}
	b.remove(orderID)
	return true
}
