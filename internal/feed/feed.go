// internal/feed/feed.go

// Package feed defines the normalized market-data contract between
// exchange collaborators and the monitor core.
package feed

import (
	"context"
	"time"

	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

// EventType tags the variants a feed can deliver.
type EventType int

const (
	EventTick EventType = iota
	EventStatus
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventTick:
		return "tick"
	case EventStatus:
		return "status"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// StatusKind classifies feed lifecycle transitions.
type StatusKind string

const (
	StatusConnected       StatusKind = "connected"
	StatusDisconnected    StatusKind = "disconnected"
	StatusReconnecting    StatusKind = "reconnecting"
	StatusSubscribed      StatusKind = "subscribed"
	StatusSubscribeFailed StatusKind = "subscribe_failed"
)

// Status describes one lifecycle transition of the feed session.
type Status struct {
	Kind   StatusKind
	Detail string
}

// Event is the tagged variant a feed emits. Exactly one payload field is
// meaningful, selected by Type: consumers route ticks into the monitor
// and log the rest.
type Event struct {
	Type   EventType
	Tick   monitor.Tick
	Status Status
	Err    error
	At     time.Time
}

// TickEvent wraps a normalized tick.
func TickEvent(tick monitor.Tick) Event {
	return Event{Type: EventTick, Tick: tick, At: tick.ObservedAt}
}

// StatusEvent wraps a lifecycle transition.
func StatusEvent(kind StatusKind, detail string) Event {
	return Event{Type: EventStatus, Status: Status{Kind: kind, Detail: detail}, At: time.Now()}
}

// ErrorEvent wraps a non-fatal feed error.
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Err: err, At: time.Now()}
}

// Feed streams events into out until ctx is cancelled. Implementations
// own their reconnect policy and must never block on a full out channel.
type Feed interface {
	Run(ctx context.Context, out chan<- Event) error
}
