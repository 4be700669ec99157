// Package handler exposes the read/control HTTP surface over running
// simulations, plus a websocket feed for dashboard clients.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lobsim/internal/service"
	"lobsim/internal/strategy"
)

// NewRouter creates a chi router with all routes registered and
// request logging middleware.
func NewRouter(mgr *service.Manager, feed *Feed, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogging(logger))

	runH := NewRunHandler(mgr)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Strategy catalog.
	r.Get("/strategies", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"strategies": strategy.List()})
	})

	// Run lifecycle and read surface.
	r.Post("/runs", runH.Start)
	r.Get("/runs", runH.List)
	r.Post("/runs/{run_id}/step", runH.Step)
	r.Get("/runs/{run_id}/snapshot", runH.Snapshot)
	r.Get("/runs/{run_id}/book", runH.Book)
	r.Get("/runs/{run_id}/trades", runH.Trades)
	r.Get("/runs/{run_id}/performance", runH.Performance)
	r.Delete("/runs/{run_id}", runH.Cancel)

	// Live feed.
	if feed != nil {
		r.Get("/feed", feed.Serve)
	}

	return r
}

// requestLogging returns middleware that logs each request's method,
// path, status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
