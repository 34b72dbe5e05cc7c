// internal/app/bridge_test.go
package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/events"
	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

type eventCapture struct {
	mu       sync.Mutex
	received []events.Event
}

func (c *eventCapture) handler() func(context.Context, events.Event) error {
	return func(_ context.Context, ev events.Event) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.received = append(c.received, ev)
		return nil
	}
}

func (c *eventCapture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func (c *eventCapture) first() events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received[0]
}

func TestBusBridgeMapsStateTransitions(t *testing.T) {
	bus := events.NewBus(zap.NewNop(), 16)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Shutdown(ctx)
	}()

	started := &eventCapture{}
	stopped := &eventCapture{}
	bus.SubscribeFunc(events.MonitorStarted, started.handler())
	bus.SubscribeFunc(events.MonitorStopped, stopped.handler())

	bridge := newBusBridge(bus, 42, 15.5)
	bridge.StateChanged(monitor.StateStarting, "warming up")
	bridge.StateChanged(monitor.StateRunning, "session open")
	bridge.StateChanged(monitor.StateStopped, "shutdown")

	waitFor(t, 2*time.Second, func() bool {
		return started.count() == 1 && stopped.count() == 1
	})

	ev := started.first().(events.MonitorStartedEvent)
	if ev.Pairs != 42 {
		t.Errorf("pairs = %d, want 42", ev.Pairs)
	}
	if ev.ThresholdPercent != 15.5 {
		t.Errorf("threshold = %v, want 15.5", ev.ThresholdPercent)
	}

	stop := stopped.first().(events.MonitorStoppedEvent)
	if stop.Reason != "shutdown" {
		t.Errorf("reason = %q, want shutdown", stop.Reason)
	}
}

func TestBusBridgeForwardsAlertsAndSnapshots(t *testing.T) {
	bus := events.NewBus(zap.NewNop(), 16)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Shutdown(ctx)
	}()

	alerts := &eventCapture{}
	snaps := &eventCapture{}
	bus.SubscribeFunc(events.AlertTriggered, alerts.handler())
	bus.SubscribeFunc(events.StatsSnapshot, snaps.handler())

	bridge := newBusBridge(bus, 1, 20)
	emitted := time.Now()
	bridge.AlertTriggered(monitor.AlertEvent{
		Symbol:          "BTC_USDT",
		CurrentPrice:    75,
		RunningMax:      100,
		DrawdownPercent: 25,
		EmittedAt:       emitted,
	})
	bridge.SnapshotTaken(monitor.MonitorSnapshot{
		TotalSymbols:    10,
		SymbolsWithData: 8,
		GeneratedAt:     emitted,
	})

	waitFor(t, 2*time.Second, func() bool {
		return alerts.count() == 1 && snaps.count() == 1
	})

	alert := alerts.first().(events.AlertTriggeredEvent)
	if alert.Alert.Symbol != "BTC_USDT" {
		t.Errorf("alert symbol = %q, want BTC_USDT", alert.Alert.Symbol)
	}
	if !alert.Timestamp().Equal(emitted) {
		t.Errorf("alert event time = %v, want %v", alert.Timestamp(), emitted)
	}

	snap := snaps.first().(events.StatsSnapshotEvent)
	if snap.Snapshot.TotalSymbols != 10 {
		t.Errorf("snapshot total = %d, want 10", snap.Snapshot.TotalSymbols)
	}
}
