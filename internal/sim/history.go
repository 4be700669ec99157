package sim

import "lobsim/internal/domain"

// recentLimit bounds the history and trade slices returned by Snapshot.
const recentLimit = 200

// recordHistory appends the snapshot's state to the run's price,
// spread, and volume series. The full series is retained for the
// post-run metrics collaborators.
func (r *Runner) recordHistory(snap domain.MarketSnapshot) {
	r.priceHistory = append(r.priceHistory, PricePoint{
		Timestamp: snap.Timestamp,
		MidPrice:  snap.MidPrice,
		BestBid:   snap.BestBid,
		BestAsk:   snap.BestAsk,
	})
	r.spreadHistory = append(r.spreadHistory, SpreadPoint{
		Timestamp: snap.Timestamp,
		Spread:    snap.Spread,
	})
	r.volumeHistory = append(r.volumeHistory, VolumePoint{
		Timestamp: snap.Timestamp,
		BidVolume: snap.BidVolume,
		AskVolume: snap.AskVolume,
	})
}

// Snapshot builds an immutable read view of the run: book state,
// recent history, recent trades, and every strategy's performance.
// Safe to call from any goroutine.
func (r *Runner) Snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := RunSnapshot{
		State:   r.state,
		SimTime: r.currentTime,
	}
	if r.book == nil {
		return snap
	}
	snap.MidPrice = r.refMid
	snap.Book = r.book.State()
	snap.PriceHistory = tail(r.priceHistory, recentLimit)
	snap.SpreadHistory = tail(r.spreadHistory, recentLimit)
	snap.VolumeHistory = tail(r.volumeHistory, recentLimit)
	snap.RecentTrades = tail(r.book.Trades(), recentLimit)
	for _, s := range r.strategies {
		snap.Strategies = append(snap.Strategies, s.Summary())
	}
	return snap
}

// tail copies the last n elements of a slice.
func tail[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// PriceHistory returns a copy of the full reference-price series.
func (r *Runner) PriceHistory() []PricePoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PricePoint, len(r.priceHistory))
	copy(out, r.priceHistory)
	return out
}

// SpreadHistory returns a copy of the full spread series.
func (r *Runner) SpreadHistory() []SpreadPoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SpreadPoint, len(r.spreadHistory))
	copy(out, r.spreadHistory)
	return out
}

// VolumeHistory returns a copy of the full volume-at-best series.
func (r *Runner) VolumeHistory() []VolumePoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]VolumePoint, len(r.volumeHistory))
	copy(out, r.volumeHistory)
	return out
}

// Trades returns a copy of the run's full trade log.
func (r *Runner) Trades() []domain.Trade {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.book == nil {
		return nil
	}
	log := r.book.Trades()
	out := make([]domain.Trade, len(log))
	copy(out, log)
	return out
}
