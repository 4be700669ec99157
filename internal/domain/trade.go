package domain

// Trade represents a matched execution between a buy and a sell order.
// Trades are immutable once created and appended to the book's trade log.
type Trade struct {
	TradeID     string  `json:"trade_id"`
	BuyOrderID  string  `json:"buy_order_id"`
	SellOrderID string  `json:"sell_order_id"`
	Price       int64   `json:"price"` // cents, the maker's quoted price
	Quantity    int64   `json:"quantity"`
	Timestamp   float64 `json:"timestamp"`
}
