// internal/monitor/types.go
package monitor

import "time"

// Tick is a single normalized price observation for one symbol.
// The normalizer guarantees a positive finite price; the service
// re-validates and drops anything else.
type Tick struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// SymbolState is the drawdown-tracking state for one symbol. It is owned
// by the Store and mutated only through the evaluator's transition while
// the symbol's lock is held.
type SymbolState struct {
	CurrentPrice float64   `json:"current_price"`
	RunningMax   float64   `json:"running_max"`
	RunningMaxAt time.Time `json:"running_max_at"`
	LastUpdateAt time.Time `json:"last_update_at"`
	UpdateCount  uint64    `json:"update_count"`
	Initialized  bool      `json:"initialized"`

	// Alert policy bookkeeping. LastAlertAt stays zero until the first
	// alert; AlertedAtMax is cleared whenever RunningMax is superseded.
	LastAlertAt  time.Time `json:"last_alert_at"`
	AlertedAtMax bool      `json:"alerted_at_max"`
}

// Drawdown returns the current percentage decline from the running max.
// Zero for uninitialized state or while the price sits at the max.
func (s SymbolState) Drawdown() float64 {
	if !s.Initialized || s.RunningMax <= 0 || s.CurrentPrice >= s.RunningMax {
		return 0
	}
	return (s.RunningMax - s.CurrentPrice) / s.RunningMax * 100
}

// SymbolSnapshot pairs a symbol with a point-in-time copy of its state.
type SymbolSnapshot struct {
	Symbol string      `json:"symbol"`
	State  SymbolState `json:"state"`
}

// AlertEvent is emitted when drawdown meets or exceeds the configured
// threshold. Consumed by the dispatcher and its sinks.
type AlertEvent struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	CurrentPrice    float64   `json:"current_price"`
	RunningMax      float64   `json:"running_max"`
	DrawdownPercent float64   `json:"drawdown_percent"`
	SecondsSinceMax int64     `json:"seconds_since_max"`
	UpdateCount     uint64    `json:"update_count"`
	EmittedAt       time.Time `json:"emitted_at"`
}

// MonitorSnapshot summarizes aggregate coverage for the stats reporter.
type MonitorSnapshot struct {
	TotalSymbols    int           `json:"total_symbols"`
	SymbolsWithData int           `json:"symbols_with_data"`
	ActiveSymbols   int           `json:"active_symbols"`
	Uptime          time.Duration `json:"uptime"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

// EventBus receives monitor notifications for downstream consumers (TUI,
// bridges). Implementations must not block; publishing is best effort.
type EventBus interface {
	AlertTriggered(alert AlertEvent)
	SnapshotTaken(snap MonitorSnapshot)
	StateChanged(state State, detail string)
}

// Recorder counts monitor activity for observability. Implementations
// must be safe for concurrent use and must not block.
type Recorder interface {
	TickApplied(elapsed time.Duration)
	TickDropped(reason string)
	AlertEmitted(symbol string)
	AlertDropped()
	SinkError(sink string)
	SnapshotTaken(snap MonitorSnapshot)
}

type nopBus struct{}

func (nopBus) AlertTriggered(AlertEvent) {}

func (nopBus) SnapshotTaken(MonitorSnapshot) {}

func (nopBus) StateChanged(State, string) {}

type nopRecorder struct{}

func (nopRecorder) TickApplied(time.Duration) {}

func (nopRecorder) TickDropped(string) {}

func (nopRecorder) AlertEmitted(string) {}

func (nopRecorder) AlertDropped() {}

func (nopRecorder) SinkError(string) {}

func (nopRecorder) SnapshotTaken(MonitorSnapshot) {}
