// Package strategy implements reactive order generators driven by
// periodic market snapshots, with position and PnL accounting.
package strategy

import (
	"fmt"
	"math"

	"lobsim/internal/domain"
	"lobsim/internal/event"
)

// historyCap bounds the rolling price/PnL/position histories.
const historyCap = 1000

// Config holds the tunables shared by all strategies. Prices and
// thresholds are in cents.
type Config struct {
	Name                   string  `json:"name" yaml:"name"`
	MaxPosition            int64   `json:"max_position" yaml:"max_position"`
	MaxOrderSize           int64   `json:"max_order_size" yaml:"max_order_size"`
	MinSpread              int64   `json:"min_spread" yaml:"min_spread"`
	LookbackPeriod         int     `json:"lookback_period" yaml:"lookback_period"`
	MomentumThreshold      int64   `json:"momentum_threshold" yaml:"momentum_threshold"`
	MeanReversionThreshold int64   `json:"mean_reversion_threshold" yaml:"mean_reversion_threshold"`
	ArbitrageThreshold     int64   `json:"arbitrage_threshold" yaml:"arbitrage_threshold"`
	TickSize               int64   `json:"tick_size" yaml:"tick_size"`
	InitialCapital         float64 `json:"initial_capital" yaml:"initial_capital"`
}

// withDefaults fills zero-valued fields with workable defaults.
func (c Config) withDefaults() Config {
	if c.MaxPosition == 0 {
		c.MaxPosition = 1000
	}
	if c.MaxOrderSize == 0 {
		c.MaxOrderSize = 100
	}
	if c.MinSpread == 0 {
		c.MinSpread = 1
	}
	if c.LookbackPeriod == 0 {
		c.LookbackPeriod = 20
	}
	if c.MomentumThreshold == 0 {
		c.MomentumThreshold = 2
	}
	if c.MeanReversionThreshold == 0 {
		c.MeanReversionThreshold = 3
	}
	if c.ArbitrageThreshold == 0 {
		c.ArbitrageThreshold = 1
	}
	if c.TickSize == 0 {
		c.TickSize = 1
	}
	return c
}

// Summary is the on-demand performance view of a strategy.
type Summary struct {
	Name          string  `json:"name"`
	TotalPnL      float64 `json:"total_pnl"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Position      int64   `json:"position"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	WinRate       float64 `json:"win_rate"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	NumTrades     int     `json:"num_trades"`
	NumWins       int     `json:"num_wins"`
	NumLosses     int     `json:"num_losses"`
	NumOrders     int     `json:"num_orders"`
}

// Strategy is a reactive order generator. UpdateMarketData is a pure
// state refresh; GenerateOrders may emit orders subject to the
// config's position and size limits; ProcessTrade accounts for fills
// of the strategy's own orders.
type Strategy interface {
	Name() string
	UpdateMarketData(snap domain.MarketSnapshot)
	GenerateOrders(now float64, snap domain.MarketSnapshot) []*event.OrderEvent
	ProcessTrade(tr domain.Trade)
	Summary() Summary
}

// tracker is the scaffold embedded by every strategy: market state,
// position/PnL accounting, and the active-order set used to recognize
// the strategy's own fills.
type tracker struct {
	cfg Config

	position  int64
	avgEntry  float64 // volume-weighted cost basis, cents
	realized  float64
	numTrades int
	numWins   int
	numLosses int
	numOrders int

	refPrice float64 // latest snapshot mid, cents
	bestBid  int64
	bestAsk  int64
	spread   int64

	priceHistory    []float64
	pnlHistory      []float64
	positionHistory []int64

	active map[string]struct{} // order_id → pending
	serial int
}

func newTracker(cfg Config) tracker {
	return tracker{
		cfg:    cfg.withDefaults(),
		active: make(map[string]struct{}),
	}
}

func (t *tracker) Name() string { return t.cfg.Name }

// UpdateMarketData refreshes the tracked market state and appends to
// the rolling histories. No orders are emitted here.
func (t *tracker) UpdateMarketData(snap domain.MarketSnapshot) {
	if snap.MidPrice > 0 {
		t.refPrice = snap.MidPrice
	}
	t.bestBid = snap.BestBid
	t.bestAsk = snap.BestAsk
	t.spread = snap.Spread

	t.priceHistory = appendCapped(t.priceHistory, t.refPrice)
	t.pnlHistory = appendCapped(t.pnlHistory, t.totalPnL())
	t.positionHistory = append(t.positionHistory, t.position)
	if len(t.positionHistory) > historyCap {
		t.positionHistory = t.positionHistory[1:]
	}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCap {
		s = s[1:]
	}
	return s
}

// ProcessTrade accounts for a fill if either side of the trade is one
// of this strategy's own orders. Realized PnL accrues only on fills
// that reduce the position's magnitude; the average entry price is a
// running volume-weighted cost basis that resets when the position
// returns through zero.
func (t *tracker) ProcessTrade(tr domain.Trade) {
	if _, ok := t.active[tr.BuyOrderID]; ok {
		delete(t.active, tr.BuyOrderID)
		t.applyFill(domain.SideBuy, tr.Price, tr.Quantity)
		return
	}
	if _, ok := t.active[tr.SellOrderID]; ok {
		delete(t.active, tr.SellOrderID)
		t.applyFill(domain.SideSell, tr.Price, tr.Quantity)
	}
}

func (t *tracker) applyFill(side domain.Side, price, quantity int64) {
	signed := quantity
	if side == domain.SideSell {
		signed = -quantity
	}
	old := t.position
	t.position += signed
	t.numTrades++

	switch {
	case old == 0 || (old > 0) == (signed > 0):
		// Opening or adding: fold the fill into the cost basis.
		oldAbs := absInt64(old)
		t.avgEntry = (float64(oldAbs)*t.avgEntry + float64(quantity*price)) / float64(oldAbs+quantity)
	default:
		// Reducing, closing, or flipping.
		closeQty := quantity
		if absInt64(old) < closeQty {
			closeQty = absInt64(old)
		}
		delta := float64(closeQty) * (float64(price) - t.avgEntry)
		if old < 0 {
			delta = -delta
		}
		t.realized += delta
		if delta > 0 {
			t.numWins++
		} else {
			t.numLosses++
		}
		if t.position == 0 {
			t.avgEntry = 0
		} else if (old > 0) != (t.position > 0) {
			// Flipped through zero: the residual opens at the fill price.
			t.avgEntry = float64(price)
		}
	}
}

// unrealizedPnL is position × (reference price − average entry price).
func (t *tracker) unrealizedPnL() float64 {
	if t.position == 0 {
		return 0
	}
	return float64(t.position) * (t.refPrice - t.avgEntry)
}

func (t *tracker) totalPnL() float64 {
	return t.realized + t.unrealizedPnL()
}

// newOrder registers and returns an order event owned by this strategy.
func (t *tracker) newOrder(now float64, side domain.Side, kind domain.OrderKind, price, quantity int64) *event.OrderEvent {
	t.serial++
	t.numOrders++
	id := fmt.Sprintf("%s_%s_%d", t.cfg.Name, side, t.serial)
	t.active[id] = struct{}{}
	return &event.OrderEvent{
		Timestamp: now,
		Order: domain.Order{
			OrderID:     id,
			TraderID:    t.cfg.Name,
			Side:        side,
			Kind:        kind,
			Price:       price,
			Quantity:    quantity,
			ArrivalTime: now,
		},
	}
}

// buyCapacity and sellCapacity are the remaining size allowances under
// the position limit.
func (t *tracker) buyCapacity() int64 {
	c := t.cfg.MaxPosition - t.position
	if c > t.cfg.MaxOrderSize {
		c = t.cfg.MaxOrderSize
	}
	return c
}

func (t *tracker) sellCapacity() int64 {
	c := t.cfg.MaxPosition + t.position
	if c > t.cfg.MaxOrderSize {
		c = t.cfg.MaxOrderSize
	}
	return c
}

// Summary derives the performance view: win rate over closing trades,
// Sharpe over PnL deltas, and max drawdown relative to the running
// peak.
func (t *tracker) Summary() Summary {
	s := Summary{
		Name:          t.cfg.Name,
		RealizedPnL:   t.realized,
		UnrealizedPnL: t.unrealizedPnL(),
		Position:      t.position,
		AvgEntryPrice: t.avgEntry,
		NumTrades:     t.numTrades,
		NumWins:       t.numWins,
		NumLosses:     t.numLosses,
		NumOrders:     t.numOrders,
	}
	s.TotalPnL = s.RealizedPnL + s.UnrealizedPnL
	if t.numTrades > 0 {
		s.WinRate = float64(t.numWins) / float64(t.numTrades)
	}
	s.SharpeRatio = sharpe(t.pnlHistory)
	s.MaxDrawdown = maxDrawdown(t.pnlHistory)
	return s
}

// sharpe is mean/stdev of the PnL deltas, annualized over 252 trading
// days.
func sharpe(pnl []float64) float64 {
	if len(pnl) < 3 {
		return 0
	}
	deltas := make([]float64, len(pnl)-1)
	for i := 1; i < len(pnl); i++ {
		deltas[i-1] = pnl[i] - pnl[i-1]
	}
	mean := 0.0
	for _, d := range deltas {
		mean += d
	}
	mean /= float64(len(deltas))
	variance := 0.0
	for _, d := range deltas {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(deltas))
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(252)
}

// maxDrawdown is the minimum of (PnL − running peak)/running peak.
// Peaks at or below zero are skipped to avoid dividing by zero.
func maxDrawdown(pnl []float64) float64 {
	var peak, worst float64
	for _, v := range pnl {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
