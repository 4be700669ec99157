// Package book implements a price-time-priority limit order book.
package book

import (
	"lobsim/internal/domain"

	"github.com/google/btree"
)

// entry represents a single order resting on the book. Seq is the
// book's arrival stamp: FIFO position among orders at the same price.
type entry struct {
	Price   int64
	Seq     uint64
	OrderID string
	Order   *domain.Order
}

// PriceLevel is an aggregated price level: a price plus the total
// visible quantity and order count resting there.
type PriceLevel struct {
	Price         int64 `json:"price"`
	TotalQuantity int64 `json:"total_quantity"`
	OrderCount    int   `json:"order_count"`
}

// bidLess defines ordering for the bid side: price descending, then
// arrival sequence ascending. Min() returns the best bid (highest
// price, earliest arrival).
func bidLess(a, b entry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.Seq < b.Seq
}

// askLess defines ordering for the ask side: price ascending, then
// arrival sequence ascending. Min() returns the best ask (lowest
// price, earliest arrival).
func askLess(a, b entry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.Seq < b.Seq
}

// State is the book's sole read surface: best prices, derived mid and
// spread, volume at best per side, aggregated depth, and counters.
type State struct {
	BestBid   int64        `json:"best_bid"`
	BestAsk   int64        `json:"best_ask"`
	HasBid    bool         `json:"has_bid"`
	HasAsk    bool         `json:"has_ask"`
	MidPrice  float64      `json:"mid_price"`
	Spread    int64        `json:"spread"`
	BidVolume int64        `json:"bid_volume"`
	AskVolume int64        `json:"ask_volume"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	NumOrders int          `json:"num_orders"`
	NumTrades int          `json:"num_trades"`
}

// Book maintains the bid and ask sides for a single instrument using
// B-trees with a secondary index for O(log n) cancellation by order ID,
// plus an append-only trade log. It is not internally locked: the
// orchestrator in internal/sim is the single writer and guards reads.
type Book struct {
	tickSize  int64
	maxLevels int
	bids      *btree.BTreeG[entry]
	asks      *btree.BTreeG[entry]
	index     map[string]entry // order_id → entry
	trades    []domain.Trade
	seq       uint64 // arrival stamp for resting orders
}

// New creates an empty order book. tickSize is in cents; maxLevels
// bounds the depth returned by State.
func New(tickSize int64, maxLevels int) *Book {
	const degree = 32
	if tickSize <= 0 {
		tickSize = 1
	}
	if maxLevels <= 0 {
		maxLevels = 10
	}
	return &Book{
		tickSize:  tickSize,
		maxLevels: maxLevels,
		bids:      btree.NewG[entry](degree, bidLess),
		asks:      btree.NewG[entry](degree, askLess),
		index:     make(map[string]entry),
	}
}

// insert rests an order on its side of the book, stamping it as the
// youngest arrival at its price.
func (b *Book) insert(o *domain.Order) {
	b.seq++
	e := entry{Price: o.Price, Seq: b.seq, OrderID: o.OrderID, Order: o}
	if o.Side == domain.SideBuy {
		b.bids.ReplaceOrInsert(e)
	} else {
		b.asks.ReplaceOrInsert(e)
	}
	b.index[o.OrderID] = e
}

// remove deletes an order from the book by ID. It tries both sides
// since Delete is a no-op when the entry isn't found.
func (b *Book) remove(orderID string) {
	e, ok := b.index[orderID]
	if !ok {
		return
	}
	delete(b.index, orderID)
	b.bids.Delete(e)
	b.asks.Delete(e)
}

// BestBid returns the highest bid price. The boolean is false when the
// bid side is empty.
func (b *Book) BestBid() (int64, bool) {
	e, ok := b.bids.Min()
	if !ok {
		return 0, false
	}
	return e.Price, true
}

// BestAsk returns the lowest ask price. The boolean is false when the
// ask side is empty.
func (b *Book) BestAsk() (int64, bool) {
	e, ok := b.asks.Min()
	if !ok {
		return 0, false
	}
	return e.Price, true
}

// Depth returns up to n aggregated price levels per side, best-first.
func (b *Book) Depth(n int) (bids, asks []PriceLevel) {
	return topLevels(b.bids, n), topLevels(b.asks, n)
}

// topLevels iterates the B-tree in order and aggregates entries into
// at most n price levels.
func topLevels(tree *btree.BTreeG[entry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(e entry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == e.Price {
			levels[len(levels)-1].TotalQuantity += e.Order.VisibleQuantity
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         e.Price,
			TotalQuantity: e.Order.VisibleQuantity,
			OrderCount:    1,
		})
		return true
	})
	return levels
}

// volumeAtBest sums visible quantity at the best price of a side.
func volumeAtBest(tree *btree.BTreeG[entry]) int64 {
	var best int64
	var vol int64
	tree.Ascend(func(e entry) bool {
		if vol == 0 {
			best = e.Price
		} else if e.Price != best {
			return false
		}
		vol += e.Order.VisibleQuantity
		return true
	})
	return vol
}

// State builds a snapshot of the book's derived state: best prices,
// mid, spread, volume at best, and depth up to the configured levels.
func (b *Book) State() State {
	st := State{
		NumOrders: len(b.index),
		NumTrades: len(b.trades),
	}
	st.BestBid, st.HasBid = b.BestBid()
	st.BestAsk, st.HasAsk = b.BestAsk()
	if st.HasBid && st.HasAsk {
		st.MidPrice = float64(st.BestBid+st.BestAsk) / 2
		st.Spread = st.BestAsk - st.BestBid
	}
	if st.HasBid {
		st.BidVolume = volumeAtBest(b.bids)
	}
	if st.HasAsk {
		st.AskVolume = volumeAtBest(b.asks)
	}
	st.Bids, st.Asks = b.Depth(b.maxLevels)
	return st
}

// Trades returns the append-only trade log. The returned slice is the
// book's own backing array; callers must not mutate it.
func (b *Book) Trades() []domain.Trade {
	return b.trades
}

// NumOrders returns the number of orders resting on the book.
func (b *Book) NumOrders() int {
	return len(b.index)
}

// TickSize returns the book's price increment in cents.
func (b *Book) TickSize() int64 {
	return b.tickSize
}
