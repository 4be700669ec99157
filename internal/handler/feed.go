package handler

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"lobsim/internal/domain"
)

// subscription is one client's buffered message channel.
type subscription struct {
	ch chan feedMessage
}

// feedMessage is the envelope pushed to websocket clients.
type feedMessage struct {
	Type string `json:"type"` // "snapshot" or "trade"
	Data any    `json:"data"`
}

// Feed broadcasts market snapshots and trades to websocket clients.
// Broadcasts never block the simulation loop: a client whose buffer is
// full simply misses messages.
type Feed struct {
	mu       sync.RWMutex
	subs     map[*subscription]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewFeed creates a feed hub.
func NewFeed(logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		subs: make(map[*subscription]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (f *Feed) subscribe(buffer int) *subscription {
	sub := &subscription{ch: make(chan feedMessage, buffer)}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

func (f *Feed) unsubscribe(sub *subscription) {
	f.mu.Lock()
	delete(f.subs, sub)
	f.mu.Unlock()
	close(sub.ch)
}

func (f *Feed) broadcast(msg feedMessage) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for sub := range f.subs {
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// PublishSnapshot pushes a market snapshot to all clients. Suitable as
// a sim.Runner OnSnapshot hook.
func (f *Feed) PublishSnapshot(snap domain.MarketSnapshot) {
	f.broadcast(feedMessage{Type: "snapshot", Data: snap})
}

// PublishTrade pushes a trade to all clients. Suitable as a
// sim.Runner OnTrade hook.
func (f *Feed) PublishTrade(tr domain.Trade) {
	f.broadcast(feedMessage{Type: "trade", Data: tr})
}

// Serve handles GET /feed, upgrading to a websocket and streaming
// feed messages until the client disconnects.
func (f *Feed) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	sub := f.subscribe(256)
	defer f.unsubscribe(sub)

	// Drain inbound frames so close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-sub.ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
