package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"lobsim/internal/agent"
	"lobsim/internal/book"
	"lobsim/internal/domain"
	"lobsim/internal/event"
	"lobsim/internal/strategy"
)

// State is the runner's lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// idleAdvance is how far the clock jumps when the scheduler drains
// before the run duration elapses, so agents can be re-polled instead
// of stalling the run.
const idleAdvance = 1.0

// StepResult reports the outcome of a Step call.
type StepResult struct {
	EventsProcessed int     `json:"events_processed"`
	SimTime         float64 `json:"sim_time"`
	Done            bool    `json:"done"`
}

// PricePoint is one record of the reference price history.
type PricePoint struct {
	Timestamp float64 `json:"timestamp"`
	MidPrice  float64 `json:"mid_price"`
	BestBid   int64   `json:"best_bid"`
	BestAsk   int64   `json:"best_ask"`
}

// SpreadPoint is one record of the spread history.
type SpreadPoint struct {
	Timestamp float64 `json:"timestamp"`
	Spread    int64   `json:"spread"`
}

// VolumePoint is one record of the volume-at-best history.
type VolumePoint struct {
	Timestamp float64 `json:"timestamp"`
	BidVolume int64   `json:"bid_volume"`
	AskVolume int64   `json:"ask_volume"`
}

// RunSnapshot is the immutable read view of a run, safe to serve from
// other goroutines between steps.
type RunSnapshot struct {
	State         State              `json:"state"`
	SimTime       float64            `json:"sim_time"`
	MidPrice      float64            `json:"mid_price"`
	Book          book.State         `json:"book"`
	PriceHistory  []PricePoint       `json:"price_history"`
	SpreadHistory []SpreadPoint      `json:"spread_history"`
	VolumeHistory []VolumePoint      `json:"volume_history"`
	RecentTrades  []domain.Trade     `json:"recent_trades"`
	Strategies    []strategy.Summary `json:"strategies"`
}

// owner records which agent placed an order and on which side, so
// trades can be routed back as notifications.
type owner struct {
	traderID string
	side     domain.Side
}

// Runner is the simulation orchestrator: a state machine over idle and
// running. The step loop is the single writer; snapshot reads from
// other goroutines go through the read lock and receive copies.
type Runner struct {
	mu     sync.RWMutex
	logger *slog.Logger

	cfg   Config
	state State
	stop  atomic.Bool

	rng   *rand.Rand
	book  *book.Book
	sched *event.Scheduler

	agents     []agent.Agent
	agentsByID map[string]agent.Agent
	makers     []*agent.MarketMaker
	strategies []strategy.Strategy

	currentTime float64
	refMid      float64 // reference mid, fractional cents
	tempImpact  float64 // outstanding temporary impact component
	lastImpact  float64 // sim time of the last impact update

	owners map[string]owner // order_id → placing agent

	lastStrategyRun float64
	lastStaleSweep  float64
	rejected        int // admission-rejected orders, run continues

	priceHistory  []PricePoint
	spreadHistory []SpreadPoint
	volumeHistory []VolumePoint

	// Optional push hooks for live feeds. Set before Start; invoked
	// from inside the step loop.
	OnSnapshot func(domain.MarketSnapshot)
	OnTrade    func(domain.Trade)
}

// NewRunner validates the config and builds an idle runner. Strategy
// construction happens here so an unknown strategy name fails the call
// with no partial state.
func NewRunner(cfg Config, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		logger: logger,
		cfg:    cfg,
		state:  StateIdle,
	}
	for _, sc := range cfg.Strategies {
		if sc.TickSize == 0 {
			sc.TickSize = cfg.TickSize
		}
		s, err := strategy.New(sc.Name, sc)
		if err != nil {
			return nil, err
		}
		r.strategies = append(r.strategies, s)
	}
	return r, nil
}

// Start builds the book and the agent population, seeds the scheduler
// with every agent's first event, and transitions to running.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRunning {
		return fmt.Errorf("run already started")
	}

	r.rng = rand.New(rand.NewSource(r.cfg.Seed))
	r.book = book.New(r.cfg.TickSize, r.cfg.MaxLevels)
	r.sched = event.NewScheduler()
	r.owners = make(map[string]owner)
	r.currentTime = 0
	r.refMid = float64(r.cfg.InitialPrice)
	r.tempImpact = 0
	r.lastImpact = 0
	r.lastStrategyRun = 0
	r.lastStaleSweep = 0
	r.rejected = 0
	r.priceHistory = nil
	r.spreadHistory = nil
	r.volumeHistory = nil
	r.stop.Store(false)

	r.agents = nil
	r.makers = nil
	r.agentsByID = make(map[string]agent.Agent)

	for i := 0; i < r.cfg.NumInformed; i++ {
		a := agent.NewInformed(fmt.Sprintf("informed_%d", i), r.cfg.LambdaInformed,
			r.cfg.InformedInfoProb, r.cfg.InitialPrice, r.cfg.TickSize, r.rng)
		r.addAgent(a)
	}
	for i := 0; i < r.cfg.NumUninformed; i++ {
		a := agent.NewUninformed(fmt.Sprintf("uninformed_%d", i), r.cfg.LambdaUninformed,
			r.cfg.InitialPrice, r.cfg.TickSize, r.rng)
		r.addAgent(a)
	}
	for i := 0; i < r.cfg.NumMarketMakers; i++ {
		mm := agent.NewMarketMaker(fmt.Sprintf("mm_%d", i), r.cfg.LambdaMarketMaker,
			0, r.cfg.MaxInventory, r.cfg.InitialPrice, r.cfg.TickSize, r.rng)
		r.addAgent(mm)
		r.makers = append(r.makers, mm)
	}

	for _, a := range r.agents {
		if ev := a.NextEvent(0); ev != nil {
			r.sched.Push(ev)
		}
	}

	r.state = StateRunning
	r.logger.Info("run started",
		slog.Float64("duration", r.cfg.Duration),
		slog.Int("agents", len(r.agents)),
		slog.Int("strategies", len(r.strategies)),
		slog.Int64("seed", r.cfg.Seed),
	)
	return nil
}

func (r *Runner) addAgent(a agent.Agent) {
	r.agents = append(r.agents, a)
	r.agentsByID[a.ID()] = a
}

// Step advances the run by at most maxEvents events and returns the
// new simulated time. The run finishes when simulated time reaches the
// configured duration; an empty scheduler before then triggers
// idle-time handling rather than termination.
func (r *Runner) Step(maxEvents int) (StepResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning {
		return StepResult{SimTime: r.currentTime, Done: true}, domain.ErrRunNotRunning
	}

	var res StepResult
	for i := 0; i < maxEvents; i++ {
		if r.stop.Load() {
			r.finish("stopped")
			break
		}
		if r.currentTime >= r.cfg.Duration {
			r.finish("duration elapsed")
			break
		}

		if r.sched.IsEmpty() {
			// Idle-time handling: advance the clock and re-poll every
			// agent so the run does not stall.
			r.currentTime += idleAdvance
			for _, a := range r.agents {
				if ev := a.NextEvent(r.currentTime); ev != nil {
					r.sched.Push(ev)
				}
			}
			if r.sched.IsEmpty() {
				r.finish("no event sources")
				break
			}
		}

		next, _ := r.sched.Peek()
		if next.Time() > r.cfg.Duration {
			r.currentTime = r.cfg.Duration
			r.finish("duration elapsed")
			break
		}

		ev := r.sched.PopEarliest()
		if ev.Time() > r.currentTime {
			r.currentTime = ev.Time()
		}

		if err := r.dispatch(ev); err != nil {
			// Invariant violations are fatal; the run aborts with the
			// offending event in the log context.
			r.finish("aborted")
			r.logger.Error("fatal step error",
				slog.String("error", err.Error()),
				slog.String("event_kind", string(ev.Kind())),
				slog.Float64("sim_time", r.currentTime),
			)
			return res, err
		}
		res.EventsProcessed++

		r.afterEvent()
	}

	res.SimTime = r.currentTime
	res.Done = r.state == StateIdle
	return res, nil
}

// dispatch applies one event to the book or the history by tag.
func (r *Runner) dispatch(ev event.Event) error {
	switch e := ev.(type) {
	case *event.OrderEvent:
		return r.processOrder(e)
	case *event.CancelEvent:
		r.book.CancelOrder(e.OrderID)
		return nil
	case *event.TradeEvent:
		r.applyTrade(e.Trade)
		return nil
	case *event.MarketDataEvent:
		r.broadcast(e.Snapshot)
		return nil
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind())
	}
}

func (r *Runner) processOrder(e *event.OrderEvent) error {
	o := e.Order
	r.owners[o.OrderID] = owner{traderID: o.TraderID, side: o.Side}

	trades, err := r.book.AddOrder(&o, r.currentTime)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrder) || errors.Is(err, domain.ErrDuplicateOrderID) {
			// Admission errors never abort the run.
			r.rejected++
			r.logger.Warn("order rejected",
				slog.String("order_id", o.OrderID),
				slog.String("error", err.Error()),
			)
			err = nil
		}
		if err != nil {
			return err
		}
	}

	for _, tr := range trades {
		r.applyTrade(tr)
	}

	// Keep the acting agent's event stream alive: the agent that just
	// traded schedules its next arrival.
	if a, ok := r.agentsByID[o.TraderID]; ok {
		if next := a.NextEvent(r.currentTime); next != nil {
			r.sched.Push(next)
		}
	}
	return nil
}

// applyTrade records a trade, moves the reference price through the
// impact model, and notifies the involved agents and all strategies.
func (r *Runner) applyTrade(tr domain.Trade) {
	r.applyImpact(tr)

	if own, ok := r.owners[tr.BuyOrderID]; ok {
		if a, found := r.agentsByID[own.traderID]; found {
			a.OnTrade(tr.Price, tr.Quantity, domain.SideBuy)
		}
	}
	if own, ok := r.owners[tr.SellOrderID]; ok {
		if a, found := r.agentsByID[own.traderID]; found {
			a.OnTrade(tr.Price, tr.Quantity, domain.SideSell)
		}
	}
	for _, s := range r.strategies {
		s.ProcessTrade(tr)
	}
	if r.OnTrade != nil {
		r.OnTrade(tr)
	}
}

// applyImpact updates the reference mid-price: the outstanding
// temporary impact decays toward zero with time constant
// ImpactDecayTau, then a randomly-signed impact of magnitude
// λ·quantity^γ is applied, followed by a small mean-reversion pull
// toward the initial price and additive Gaussian noise. The sign is
// random because the model does not assume a ground-truth trade
// direction.
func (r *Runner) applyImpact(tr domain.Trade) {
	if dt := r.currentTime - r.lastImpact; dt > 0 && r.tempImpact != 0 {
		decay := math.Exp(-dt / r.cfg.ImpactDecayTau)
		r.refMid -= r.tempImpact * (1 - decay)
		r.tempImpact *= decay
	}
	r.lastImpact = r.currentTime

	magnitude := r.cfg.ImpactLambda * math.Pow(float64(tr.Quantity), r.cfg.ImpactGamma)
	direction := 1.0
	if r.rng.Intn(2) == 0 {
		direction = -1.0
	}
	impact := magnitude * direction
	r.refMid += impact
	r.tempImpact += impact

	r.refMid += r.cfg.MeanReversion * (float64(r.cfg.InitialPrice) - r.refMid) * 1e-4
	r.refMid += r.rng.NormFloat64() * r.cfg.NoiseSigma

	if r.refMid < float64(r.cfg.TickSize) {
		r.refMid = float64(r.cfg.TickSize)
	}
}

// afterEvent builds the post-event snapshot, broadcasts it, runs the
// periodic strategy and stale-quote passes, and records history.
func (r *Runner) afterEvent() {
	snap := r.snapshotLocked()
	r.broadcast(snap)

	if r.currentTime-r.lastStrategyRun >= r.cfg.SnapshotInterval {
		r.lastStrategyRun = r.currentTime
		for _, s := range r.strategies {
			for _, oe := range s.GenerateOrders(r.currentTime, snap) {
				r.sched.Push(oe)
			}
		}
	}

	if r.cfg.StaleCancelInterval > 0 && r.currentTime-r.lastStaleSweep >= r.cfg.StaleCancelInterval {
		r.lastStaleSweep = r.currentTime
		for _, mm := range r.makers {
			if ce := mm.CancelStaleOrders(r.currentTime); ce != nil {
				r.sched.Push(ce)
			}
		}
	}

	r.recordHistory(snap)
	if r.OnSnapshot != nil {
		r.OnSnapshot(snap)
	}
}

// broadcast delivers a snapshot to every agent and strategy.
func (r *Runner) broadcast(snap domain.MarketSnapshot) {
	for _, a := range r.agents {
		a.OnMarketUpdate(snap)
	}
	for _, s := range r.strategies {
		s.UpdateMarketData(snap)
	}
}

func (r *Runner) snapshotLocked() domain.MarketSnapshot {
	st := r.book.State()
	return domain.MarketSnapshot{
		Timestamp: r.currentTime,
		MidPrice:  r.refMid,
		BestBid:   st.BestBid,
		BestAsk:   st.BestAsk,
		HasBid:    st.HasBid,
		HasAsk:    st.HasAsk,
		Spread:    st.Spread,
		BidVolume: st.BidVolume,
		AskVolume: st.AskVolume,
	}
}

func (r *Runner) finish(reason string) {
	if r.state == StateRunning {
		r.state = StateIdle
		r.logger.Info("run finished",
			slog.String("reason", reason),
			slog.Float64("sim_time", r.currentTime),
			slog.Int("trades", len(r.book.Trades())),
			slog.Int("rejected_orders", r.rejected),
		)
	}
}

// Stop requests a cooperative stop. The flag is observed at the top of
// each event iteration; an in-flight Step batch completes before the
// state transition is visible.
func (r *Runner) Stop() {
	r.stop.Store(true)
	r.mu.Lock()
	r.finish("stopped")
	r.mu.Unlock()
}

// InjectEvent pushes a host-supplied event onto the scheduler.
func (r *Runner) InjectEvent(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning {
		return domain.ErrRunNotRunning
	}
	r.sched.Push(ev)
	return nil
}

// State returns the runner's lifecycle state.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// SimTime returns the current simulated time.
func (r *Runner) SimTime() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentTime
}
