// internal/events/types.go
package events

import (
	"time"

	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

// EventType represents the type of event.
type EventType string

const (
	// Alert events
	AlertTriggered EventType = "alert.triggered"

	// Periodic statistics events
	StatsSnapshot EventType = "stats.snapshot"

	// Feed lifecycle events
	FeedStatusChanged EventType = "feed.status"

	// Monitor lifecycle events
	MonitorStarted EventType = "monitor.started"
	MonitorStopped EventType = "monitor.stopped"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// AlertTriggeredEvent is emitted when a symbol's drawdown crosses the
// configured threshold.
type AlertTriggeredEvent struct {
	BaseEvent
	Alert monitor.AlertEvent
}

// StatsSnapshotEvent is emitted on every periodic statistics report.
type StatsSnapshotEvent struct {
	BaseEvent
	Snapshot monitor.MonitorSnapshot
}

// FeedStatusEvent is emitted when the exchange connection changes
// state: connected, reconnecting, subscribed, disconnected.
type FeedStatusEvent struct {
	BaseEvent
	Kind   string
	Detail string
}

// MonitorStartedEvent is emitted when the monitoring session begins.
type MonitorStartedEvent struct {
	BaseEvent
	Pairs            int
	ThresholdPercent float64
}

// MonitorStoppedEvent is emitted when the monitoring session ends.
type MonitorStoppedEvent struct {
	BaseEvent
	Reason string // "shutdown", "feed closed", "error"
}
