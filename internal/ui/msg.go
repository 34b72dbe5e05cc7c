// internal/ui/msg.go
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rovshanmuradov/dip-monitor/internal/feed"
	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

// Bus carries runtime events into the bubbletea program. Publishers
// must never block: when the dashboard is slow or absent, messages are
// dropped. The table and log pane re-read their sources on the refresh
// tick, so a dropped message costs at most one frame of staleness.
var Bus = make(chan tea.Msg, 1024)

// AlertMsg delivers a fired dip alert.
type AlertMsg struct {
	Alert monitor.AlertEvent
}

// StatsMsg delivers a periodic coverage snapshot.
type StatsMsg struct {
	Snapshot monitor.MonitorSnapshot
}

// FeedStatusMsg delivers a feed lifecycle transition.
type FeedStatusMsg struct {
	Kind   feed.StatusKind
	Detail string
	At     time.Time
}

// MonitorStateMsg delivers a monitor lifecycle transition.
type MonitorStateMsg struct {
	State  string
	Detail string
}

// PublishAlert puts an alert on the bus, dropping it when full.
func PublishAlert(alert monitor.AlertEvent) {
	select {
	case Bus <- AlertMsg{Alert: alert}:
	default:
	}
}

// PublishStats puts a snapshot on the bus, dropping it when full.
func PublishStats(snap monitor.MonitorSnapshot) {
	select {
	case Bus <- StatsMsg{Snapshot: snap}:
	default:
	}
}

// PublishFeedStatus puts a feed transition on the bus, dropping it when
// full.
func PublishFeedStatus(kind feed.StatusKind, detail string) {
	select {
	case Bus <- FeedStatusMsg{Kind: kind, Detail: detail, At: time.Now()}:
	default:
	}
}

// PublishMonitorState puts a monitor transition on the bus, dropping it
// when full.
func PublishMonitorState(state, detail string) {
	select {
	case Bus <- MonitorStateMsg{State: state, Detail: detail}:
	default:
	}
}

// ListenBus returns a command that waits for the next bus message. The
// dashboard re-arms it after handling each delivered message.
func ListenBus() tea.Cmd {
	return func() tea.Msg {
		return <-Bus
	}
}
