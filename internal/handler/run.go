package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lobsim/internal/domain"
	"lobsim/internal/service"
	"lobsim/internal/sim"
)

// defaultStepEvents bounds a step request that doesn't specify one.
const defaultStepEvents = 1000

// RunHandler handles HTTP requests for simulation runs.
type RunHandler struct {
	mgr *service.Manager
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(mgr *service.Manager) *RunHandler {
	return &RunHandler{mgr: mgr}
}

// startRequest is the JSON request body for POST /runs. Zero-valued
// fields fall back to the default scenario.
type startRequest struct {
	Config *sim.Config `json:"config"`
}

// startResponse is the JSON response for POST /runs.
type startResponse struct {
	RunID string `json:"run_id"`
}

// Start handles POST /runs.
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cfg := sim.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	id, err := h.mgr.StartRun(cfg)
	if err != nil {
		mapRunError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, startResponse{RunID: id})
}

// List handles GET /runs.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"runs": h.mgr.RunIDs()})
}

// Step handles POST /runs/{run_id}/step. The max_events query
// parameter lets a host pace the run, e.g. to throttle UI updates.
func (h *RunHandler) Step(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")

	maxEvents := defaultStepEvents
	if raw := r.URL.Query().Get("max_events"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			WriteError(w, http.StatusBadRequest, "validation_error", "max_events must be a positive integer")
			return
		}
		maxEvents = v
	}

	res, err := h.mgr.Step(id, maxEvents)
	if err != nil && !errors.Is(err, domain.ErrRunNotRunning) {
		mapRunError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Snapshot handles GET /runs/{run_id}/snapshot.
func (h *RunHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")

	snap, err := h.mgr.Snapshot(id)
	if err != nil {
		mapRunError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// Book handles GET /runs/{run_id}/book.
func (h *RunHandler) Book(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")

	snap, err := h.mgr.Snapshot(id)
	if err != nil {
		mapRunError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap.Book)
}

// Trades handles GET /runs/{run_id}/trades.
func (h *RunHandler) Trades(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")

	snap, err := h.mgr.Snapshot(id)
	if err != nil {
		mapRunError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"trades": snap.RecentTrades})
}

// Performance handles GET /runs/{run_id}/performance.
func (h *RunHandler) Performance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")

	summaries, err := h.mgr.Performance(id)
	if err != nil {
		mapRunError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"strategies": summaries})
}

// Cancel handles DELETE /runs/{run_id}.
func (h *RunHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")

	if err := h.mgr.CancelRun(id); err != nil {
		mapRunError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// mapRunError maps service errors to HTTP status codes.
func mapRunError(w http.ResponseWriter, err error) {
	var cfgErr *domain.ConfigError
	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		WriteError(w, http.StatusNotFound, "run_not_found", "No run with that id")
	case errors.Is(err, domain.ErrUnknownStrategy):
		WriteError(w, http.StatusBadRequest, "unknown_strategy", err.Error())
	case errors.As(err, &cfgErr):
		WriteError(w, http.StatusBadRequest, "configuration_error", cfgErr.Message)
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
