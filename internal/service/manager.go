// Package service exposes the host-facing API surface over simulation
// runs: start, step, snapshot, and cancel, keyed by run handle.
package service

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"lobsim/internal/domain"
	"lobsim/internal/sim"
	"lobsim/internal/strategy"
)

// Manager owns the active runs. There is deliberately no process-wide
// singleton: every call takes the run handle, which also allows
// multiple concurrent runs in tests.
type Manager struct {
	mu     sync.RWMutex
	runs   map[string]*sim.Runner
	logger *slog.Logger

	// Optional hooks copied onto every new runner before it starts,
	// e.g. a live websocket feed.
	OnSnapshot func(domain.MarketSnapshot)
	OnTrade    func(domain.Trade)
}

// NewManager creates an empty run manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		runs:   make(map[string]*sim.Runner),
		logger: logger,
	}
}

// StartRun validates the config, builds a runner, starts it, and
// returns its handle. Configuration errors fail synchronously with no
// run registered.
func (m *Manager) StartRun(cfg sim.Config) (string, error) {
	runner, err := sim.NewRunner(cfg, m.logger)
	if err != nil {
		return "", err
	}
	runner.OnSnapshot = m.OnSnapshot
	runner.OnTrade = m.OnTrade
	if err := runner.Start(); err != nil {
		return "", err
	}

	id := uuid.New().String()
	m.mu.Lock()
	m.runs[id] = runner
	m.mu.Unlock()

	m.logger.Info("run registered", slog.String("run_id", id))
	return id, nil
}

// Get returns the runner for a handle.
func (m *Manager) Get(id string) (*sim.Runner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runner, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return runner, nil
}

// Step advances the run by at most maxEvents events.
func (m *Manager) Step(id string, maxEvents int) (sim.StepResult, error) {
	runner, err := m.Get(id)
	if err != nil {
		return sim.StepResult{}, err
	}
	return runner.Step(maxEvents)
}

// Snapshot returns the run's current read view. Pure read, safe to
// call at any time between steps.
func (m *Manager) Snapshot(id string) (sim.RunSnapshot, error) {
	runner, err := m.Get(id)
	if err != nil {
		return sim.RunSnapshot{}, err
	}
	return runner.Snapshot(), nil
}

// Performance returns every attached strategy's summary.
func (m *Manager) Performance(id string) ([]strategy.Summary, error) {
	runner, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return runner.Snapshot().Strategies, nil
}

// CancelRun stops the run cooperatively and removes it from the
// manager. The in-flight step completes before the stop takes effect.
func (m *Manager) CancelRun(id string) error {
	runner, err := m.Get(id)
	if err != nil {
		return err
	}
	runner.Stop()

	m.mu.Lock()
	delete(m.runs, id)
	m.mu.Unlock()

	m.logger.Info("run cancelled", slog.String("run_id", id))
	return nil
}

// RunIDs lists the registered run handles.
func (m *Manager) RunIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	return ids
}
