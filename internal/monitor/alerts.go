// internal/monitor/alerts.go
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAlertQueueSize = 256
	defaultDeliverTimeout = 5 * time.Second
	maxRecentAlerts       = 100
)

// Sink delivers an alert to one destination (console, CSV log, webhook).
// Deliver runs on the dispatcher goroutine with a bounded context; errors
// are logged and counted, never propagated back to tick ingestion.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, alert AlertEvent) error
}

// Dispatcher decouples alert delivery from the tick path. Dispatch hands
// the event to a bounded queue and returns immediately; a single delivery
// goroutine feeds the registered sinks. When the queue is full the alert
// is dropped and counted rather than stalling ingestion.
type Dispatcher struct {
	logger   *zap.Logger
	recorder Recorder

	mu     sync.RWMutex
	sinks  []Sink
	recent []AlertEvent

	queue chan AlertEvent
	quit  chan struct{}
	done  chan struct{}

	closed    atomic.Bool
	delivered atomic.Uint64
	dropped   atomic.Uint64

	deliverTimeout time.Duration
}

// NewDispatcher creates a dispatcher and starts its delivery goroutine.
func NewDispatcher(queueSize int, recorder Recorder, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultAlertQueueSize
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	d := &Dispatcher{
		logger:         logger.Named("alerts"),
		recorder:       recorder,
		recent:         make([]AlertEvent, 0, maxRecentAlerts),
		queue:          make(chan AlertEvent, queueSize),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		deliverTimeout: defaultDeliverTimeout,
	}

	go d.run()
	return d
}

// RegisterSink adds a delivery destination. Safe to call while running.
func (d *Dispatcher) RegisterSink(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
	d.logger.Debug("Alert sink registered", zap.String("sink", sink.Name()))
}

// Dispatch enqueues an alert for delivery. Never blocks; alerts are
// dropped and counted when the queue is full or the dispatcher is closed.
func (d *Dispatcher) Dispatch(alert AlertEvent) {
	if d.closed.Load() {
		d.dropped.Add(1)
		d.recorder.AlertDropped()
		return
	}

	select {
	case d.queue <- alert:
	default:
		d.dropped.Add(1)
		d.recorder.AlertDropped()
		d.logger.Warn("Alert queue full, dropping alert",
			zap.String("symbol", alert.Symbol),
			zap.Float64("drawdown_percent", alert.DrawdownPercent))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for {
		select {
		case alert := <-d.queue:
			d.deliver(alert)
		case <-d.quit:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case alert := <-d.queue:
					d.deliver(alert)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(alert AlertEvent) {
	d.remember(alert)
	d.delivered.Add(1)

	d.logger.Warn("🚨 Dip alert",
		zap.String("symbol", alert.Symbol),
		zap.Float64("current_price", alert.CurrentPrice),
		zap.Float64("running_max", alert.RunningMax),
		zap.Float64("drawdown_percent", alert.DrawdownPercent),
		zap.Int64("seconds_since_max", alert.SecondsSinceMax),
		zap.Uint64("update_count", alert.UpdateCount))

	d.mu.RLock()
	sinks := make([]Sink, len(d.sinks))
	copy(sinks, d.sinks)
	d.mu.RUnlock()

	for _, sink := range sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.deliverTimeout)
		err := sink.Deliver(ctx, alert)
		cancel()
		if err != nil {
			d.recorder.SinkError(sink.Name())
			d.logger.Error("Alert delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("symbol", alert.Symbol),
				zap.Error(err))
		}
	}
}

func (d *Dispatcher) remember(alert AlertEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.recent) >= maxRecentAlerts {
		d.recent = d.recent[1:]
	}
	d.recent = append(d.recent, alert)
}

// Recent returns up to limit of the most recently delivered alerts,
// oldest first.
func (d *Dispatcher) Recent(limit int) []AlertEvent {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if limit <= 0 || limit > len(d.recent) {
		limit = len(d.recent)
	}
	start := len(d.recent) - limit

	result := make([]AlertEvent, limit)
	copy(result, d.recent[start:])
	return result
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() (delivered, dropped uint64) {
	return d.delivered.Load(), d.dropped.Load()
}

// Close stops intake, drains queued alerts and waits for the delivery
// goroutine to finish, bounded by ctx. Safe to call more than once.
func (d *Dispatcher) Close(ctx context.Context) error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(d.quit)

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn("Alert dispatcher did not drain in time")
		return ctx.Err()
	}
}
