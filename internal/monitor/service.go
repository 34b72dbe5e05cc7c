// internal/monitor/service.go
package monitor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the controller lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Config holds the monitor runtime parameters, validated at Start.
type Config struct {
	Policy        AlertPolicy
	StatsInterval time.Duration
	// Universe optionally pre-registers symbols so coverage reporting
	// counts them before their first tick arrives.
	Universe       []string
	AlertQueueSize int
	// StopGrace bounds how long Stop waits for background work to drain.
	StopGrace time.Duration
}

// DefaultConfig mirrors the reference defaults: 20% threshold, stats
// every five minutes.
func DefaultConfig() Config {
	return Config{
		Policy:         DefaultAlertPolicy(),
		StatsInterval:  5 * time.Minute,
		AlertQueueSize: defaultAlertQueueSize,
		StopGrace:      5 * time.Second,
	}
}

// Validate fails fast on parameters that would break the session.
func (c Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("stats interval must be positive, got %s", c.StatsInterval)
	}
	return nil
}

// Service is the monitor controller: it routes ticks into the store and
// evaluator, hands alerts to the dispatcher, and drives the stats
// reporter. Safe for concurrent OnTick calls from many producers.
//
// Lifecycle: Stopped -> Starting -> Running -> Stopping -> Stopped. Each
// session gets a fresh store and dispatcher; nothing leaks across
// sessions.
type Service struct {
	cfg      Config
	logger   *zap.Logger
	bus      EventBus
	recorder Recorder

	state atomic.Int32

	mu         sync.RWMutex
	sinks      []Sink
	store      *Store
	dispatcher *Dispatcher
	reporter   *Reporter
	cancel     context.CancelFunc
	loopDone   chan struct{}
}

// NewService creates a stopped monitor. bus and recorder may be nil.
func NewService(cfg Config, bus EventBus, recorder Recorder, logger *zap.Logger) *Service {
	if bus == nil {
		bus = nopBus{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		cfg:      cfg,
		logger:   logger.Named("monitor"),
		bus:      bus,
		recorder: recorder,
	}
}

// RegisterSink adds an alert destination. Sinks registered while a
// session is live start receiving alerts immediately; all registered
// sinks carry over to later sessions.
func (s *Service) RegisterSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
	if s.dispatcher != nil {
		s.dispatcher.RegisterSink(sink)
	}
}

// Start validates the configuration, builds a fresh session and begins
// accepting ticks. Returns an error when the monitor is not stopped.
// ctx bounds the session's background work: cancelling it stops the
// stats loop.
func (s *Service) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("monitor already %s", State(s.state.Load()))
	}

	if err := s.cfg.Validate(); err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("invalid monitor config: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.store = NewStore()
	for _, symbol := range s.cfg.Universe {
		s.store.Upsert(symbol)
	}
	s.dispatcher = NewDispatcher(s.cfg.AlertQueueSize, s.recorder, s.logger)
	for _, sink := range s.sinks {
		s.dispatcher.RegisterSink(sink)
	}
	s.reporter = NewReporter(time.Now())
	s.cancel = cancel
	s.loopDone = done
	store, reporter := s.store, s.reporter
	s.mu.Unlock()

	go s.statsLoop(loopCtx, store, reporter, done)

	s.state.Store(int32(StateRunning))
	s.bus.StateChanged(StateRunning, fmt.Sprintf("%d symbols pre-registered", store.Len()))
	s.logger.Info("🚀 Dip monitor started",
		zap.Float64("threshold_percent", s.cfg.Policy.ThresholdPercent),
		zap.Duration("stats_interval", s.cfg.StatsInterval),
		zap.Int("pre_registered", store.Len()))
	return nil
}

// OnTick routes one tick through the store and evaluator. Callable
// concurrently; returns as soon as any alert is handed off. Ticks are
// dropped while the monitor is not running and when they fail
// validation.
func (s *Service) OnTick(t Tick) {
	if State(s.state.Load()) != StateRunning {
		s.recorder.TickDropped("not_running")
		return
	}
	if t.Symbol == "" || t.Price <= 0 || math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		s.recorder.TickDropped("invalid")
		return
	}
	if t.ObservedAt.IsZero() {
		t.ObservedAt = time.Now()
	}

	s.mu.RLock()
	store, dispatcher := s.store, s.dispatcher
	s.mu.RUnlock()
	if store == nil {
		s.recorder.TickDropped("not_running")
		return
	}

	started := time.Now()
	before, _, alert := store.ApplyTick(t, s.transition)
	s.recorder.TickApplied(time.Since(started))

	if !before.Initialized {
		s.logger.Debug("📈 Tracking started",
			zap.String("symbol", t.Symbol),
			zap.Float64("price", t.Price))
	}

	if alert != nil {
		dispatcher.Dispatch(*alert)
		s.recorder.AlertEmitted(alert.Symbol)
		s.bus.AlertTriggered(*alert)
	}
}

func (s *Service) transition(symbol string, prior SymbolState, price float64, at time.Time) (SymbolState, *AlertEvent) {
	return Evaluate(symbol, prior, price, at, s.cfg.Policy)
}

// Stop ends the session: intake stops, the stats loop is cancelled and
// queued alerts are drained, all within the configured grace period.
// In-flight OnTick calls may or may not land; state stays consistent
// either way.
func (s *Service) Stop() error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return fmt.Errorf("monitor not running (state %s)", State(s.state.Load()))
	}
	s.logger.Info("🛑 Stopping dip monitor")

	s.mu.RLock()
	cancel, done, dispatcher := s.cancel, s.loopDone, s.dispatcher
	s.mu.RUnlock()

	cancel()

	grace := s.cfg.StopGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	ctx, cancelWait := context.WithTimeout(context.Background(), grace)
	defer cancelWait()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Stats loop did not stop within grace period")
	}

	err := dispatcher.Close(ctx)

	s.state.Store(int32(StateStopped))
	s.bus.StateChanged(StateStopped, "session ended")
	if err != nil {
		return fmt.Errorf("drain alert dispatcher: %w", err)
	}
	s.logger.Info("✅ Dip monitor stopped")
	return nil
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Snapshot reports current aggregate coverage on demand.
func (s *Service) Snapshot() MonitorSnapshot {
	s.mu.RLock()
	store, reporter := s.store, s.reporter
	s.mu.RUnlock()

	if store == nil || reporter == nil {
		return MonitorSnapshot{GeneratedAt: time.Now()}
	}
	return reporter.Report(store)
}

// Worst returns up to n symbols with data, ranked by current drawdown,
// deepest first.
func (s *Service) Worst(n int) []SymbolSnapshot {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil || n <= 0 {
		return nil
	}

	all := store.SnapshotAll()
	withData := make([]SymbolSnapshot, 0, len(all))
	for _, ss := range all {
		if ss.State.Initialized {
			withData = append(withData, ss)
		}
	}

	sort.SliceStable(withData, func(i, j int) bool {
		return withData[i].State.Drawdown() > withData[j].State.Drawdown()
	})
	if len(withData) > n {
		withData = withData[:n]
	}
	return withData
}

// RecentAlerts returns the session's most recent alerts, oldest first.
func (s *Service) RecentAlerts(limit int) []AlertEvent {
	s.mu.RLock()
	dispatcher := s.dispatcher
	s.mu.RUnlock()
	if dispatcher == nil {
		return nil
	}
	return dispatcher.Recent(limit)
}

func (s *Service) statsLoop(ctx context.Context, store *Store, reporter *Reporter, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := reporter.Report(store)
			s.logger.Info("📊 Monitor statistics",
				zap.Int("total_symbols", snap.TotalSymbols),
				zap.Int("with_data", snap.SymbolsWithData),
				zap.Int("active", snap.ActiveSymbols),
				zap.String("uptime", FormatDuration(snap.Uptime)))
			s.bus.SnapshotTaken(snap)
			s.recorder.SnapshotTaken(snap)
		}
	}
}
