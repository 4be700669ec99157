// Package metrics computes post-run summaries over the recorded
// price, spread, volume, and trade series. It only consumes history;
// it never touches live simulation state.
package metrics

import (
	"math"
	"sort"

	"lobsim/internal/domain"
	"lobsim/internal/sim"
)

// MarketSummary aggregates market-quality statistics for one run.
type MarketSummary struct {
	PriceVolatility float64 `json:"price_volatility"` // stdev of returns, annualized
	PriceTrend      float64 `json:"price_trend"`      // least-squares slope, cents per observation

	TotalVolume     int64   `json:"total_volume"`
	AvgTradeSize    float64 `json:"avg_trade_size"`
	MedianTradeSize float64 `json:"median_trade_size"`
	VolumeImbalance float64 `json:"volume_imbalance"` // (bid − ask)/(bid + ask) at best

	AvgSpread        float64 `json:"avg_spread"`
	SpreadVolatility float64 `json:"spread_volatility"`
	MinSpread        int64   `json:"min_spread"`
	MaxSpread        int64   `json:"max_spread"`

	NumTrades      int     `json:"num_trades"`
	TradeFrequency float64 `json:"trade_frequency"` // trades per simulated second
}

// secondsPerYear annualizes per-observation return volatility,
// treating one observation as one simulated second.
const secondsPerYear = 252 * 24 * 3600

// Summarize computes the market summary from a run's recorded series.
func Summarize(prices []sim.PricePoint, spreads []sim.SpreadPoint, volumes []sim.VolumePoint, trades []domain.Trade) MarketSummary {
	var s MarketSummary

	if len(prices) >= 2 {
		returns := make([]float64, 0, len(prices)-1)
		for i := 1; i < len(prices); i++ {
			if prices[i-1].MidPrice > 0 {
				returns = append(returns, prices[i].MidPrice/prices[i-1].MidPrice-1)
			}
		}
		s.PriceVolatility = stdev(returns) * math.Sqrt(secondsPerYear)
		s.PriceTrend = slope(prices)
	}

	if len(spreads) > 0 {
		vals := make([]float64, len(spreads))
		s.MinSpread = spreads[0].Spread
		s.MaxSpread = spreads[0].Spread
		for i, sp := range spreads {
			vals[i] = float64(sp.Spread)
			if sp.Spread < s.MinSpread {
				s.MinSpread = sp.Spread
			}
			if sp.Spread > s.MaxSpread {
				s.MaxSpread = sp.Spread
			}
		}
		s.AvgSpread = mean(vals)
		s.SpreadVolatility = stdev(vals)
	}

	var bidVol, askVol int64
	for _, v := range volumes {
		bidVol += v.BidVolume
		askVol += v.AskVolume
	}
	if total := bidVol + askVol; total > 0 {
		s.VolumeImbalance = float64(bidVol-askVol) / float64(total)
	}

	s.NumTrades = len(trades)
	if len(trades) > 0 {
		sizes := make([]float64, len(trades))
		for i, t := range trades {
			s.TotalVolume += t.Quantity
			sizes[i] = float64(t.Quantity)
		}
		s.AvgTradeSize = mean(sizes)
		s.MedianTradeSize = median(sizes)

		span := trades[len(trades)-1].Timestamp - trades[0].Timestamp
		if span > 0 {
			s.TradeFrequency = float64(len(trades)) / span
		}
	}

	return s
}

// ImpactBucket is the mean absolute mid-price move for trades in one
// size band.
type ImpactBucket struct {
	MinQuantity int64   `json:"min_quantity"`
	MaxQuantity int64   `json:"max_quantity"`
	NumTrades   int     `json:"num_trades"`
	MeanImpact  float64 `json:"mean_impact"` // cents
}

// ImpactProfile estimates the size→impact relationship by bucketing
// trades by quantity and averaging the absolute mid-price change
// around each trade's timestamp.
func ImpactProfile(prices []sim.PricePoint, trades []domain.Trade, bounds []int64) []ImpactBucket {
	if len(bounds) == 0 {
		bounds = []int64{0, 50, 100, 250, 500}
	}
	buckets := make([]ImpactBucket, len(bounds))
	sums := make([]float64, len(bounds))
	for i, lo := range bounds {
		buckets[i].MinQuantity = lo
		if i+1 < len(bounds) {
			buckets[i].MaxQuantity = bounds[i+1]
		} else {
			buckets[i].MaxQuantity = math.MaxInt64
		}
	}

	for _, tr := range trades {
		move, ok := midMoveAt(prices, tr.Timestamp)
		if !ok {
			continue
		}
		for i := len(bounds) - 1; i >= 0; i-- {
			if tr.Quantity >= bounds[i] {
				buckets[i].NumTrades++
				sums[i] += math.Abs(move)
				break
			}
		}
	}
	for i := range buckets {
		if buckets[i].NumTrades > 0 {
			buckets[i].MeanImpact = sums[i] / float64(buckets[i].NumTrades)
		}
	}
	return buckets
}

// midMoveAt returns the mid-price change across the history point
// nearest to ts.
func midMoveAt(prices []sim.PricePoint, ts float64) (float64, bool) {
	if len(prices) < 2 {
		return 0, false
	}
	i := sort.Search(len(prices), func(i int) bool {
		return prices[i].Timestamp >= ts
	})
	if i == 0 {
		i = 1
	}
	if i >= len(prices) {
		i = len(prices) - 1
	}
	return prices[i].MidPrice - prices[i-1].MidPrice, true
}

// slope is the least-squares slope of mid-price over observation index.
func slope(prices []sim.PricePoint) float64 {
	n := float64(len(prices))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range prices {
		x := float64(i)
		sumX += x
		sumY += p.MidPrice
		sumXY += x * p.MidPrice
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stdev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var variance float64
	for _, v := range vals {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(vals)))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
