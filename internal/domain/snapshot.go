package domain

// MarketSnapshot is the immutable market view broadcast to agents and
// strategies after every simulation step. MidPrice is the orchestrator's
// reference price (fractional cents, moved by the impact model); the
// remaining fields are read straight off the order book.
type MarketSnapshot struct {
	Timestamp float64 `json:"timestamp"`
	MidPrice  float64 `json:"mid_price"` // reference price, fractional cents
	BestBid   int64   `json:"best_bid"`  // 0 when the bid side is empty
	BestAsk   int64   `json:"best_ask"`  // 0 when the ask side is empty
	HasBid    bool    `json:"has_bid"`
	HasAsk    bool    `json:"has_ask"`
	Spread    int64   `json:"spread"`     // 0 unless both sides are populated
	BidVolume int64   `json:"bid_volume"` // visible quantity at the best bid
	AskVolume int64   `json:"ask_volume"` // visible quantity at the best ask
}
