// internal/app/bridge.go
package app

import (
	"time"

	"github.com/rovshanmuradov/dip-monitor/internal/events"
	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

// busBridge forwards monitor notifications onto the process event bus.
// Publishes are best effort: a full bus drops the event instead of
// slowing tick ingestion.
type busBridge struct {
	bus       *events.Bus
	pairs     int
	threshold float64
}

var _ monitor.EventBus = (*busBridge)(nil)

func newBusBridge(bus *events.Bus, pairs int, threshold float64) *busBridge {
	return &busBridge{bus: bus, pairs: pairs, threshold: threshold}
}

func (b *busBridge) AlertTriggered(alert monitor.AlertEvent) {
	_ = b.bus.Publish(events.AlertTriggeredEvent{
		BaseEvent: events.BaseEvent{EventType: events.AlertTriggered, EventTime: alert.EmittedAt},
		Alert:     alert,
	})
}

func (b *busBridge) SnapshotTaken(snap monitor.MonitorSnapshot) {
	_ = b.bus.Publish(events.StatsSnapshotEvent{
		BaseEvent: events.BaseEvent{EventType: events.StatsSnapshot, EventTime: snap.GeneratedAt},
		Snapshot:  snap,
	})
}

func (b *busBridge) StateChanged(state monitor.State, detail string) {
	now := time.Now()
	switch state {
	case monitor.StateRunning:
		_ = b.bus.Publish(events.MonitorStartedEvent{
			BaseEvent:        events.BaseEvent{EventType: events.MonitorStarted, EventTime: now},
			Pairs:            b.pairs,
			ThresholdPercent: b.threshold,
		})
	case monitor.StateStopped:
		_ = b.bus.Publish(events.MonitorStoppedEvent{
			BaseEvent: events.BaseEvent{EventType: events.MonitorStopped, EventTime: now},
			Reason:    detail,
		})
	}
}
