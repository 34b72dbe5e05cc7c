// internal/ui/dashboard.go

// Package ui is the bubbletea terminal dashboard: a status header, a
// worst-drawdowns table, a live alert pane and a log tail. Runtime
// events arrive over the package Bus; table and log contents are pulled
// from the monitor on a throttled refresh tick.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/dip-monitor/internal/logger"
	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
	"github.com/rovshanmuradov/dip-monitor/internal/ui/component"
	"github.com/rovshanmuradov/dip-monitor/internal/ui/style"
)

// refreshInterval caps how often the dashboard pulls fresh monitor
// state. Tick volume upstream can be thousands per second; the UI
// redraws at most four times per second.
const refreshInterval = 250 * time.Millisecond

const (
	alertPaneHeight = 8
	logPaneHeight   = 9
	minTableRows    = 5
	maxTableRows    = 30
)

type pane int

const (
	paneTable pane = iota
	paneAlerts
	paneLogs
)

// refreshMsg drives the periodic pull of monitor state.
type refreshMsg struct{}

// Dashboard is the root bubbletea model.
type Dashboard struct {
	svc  *monitor.Service
	keys KeyMap
	help help.Model

	header *component.Header
	table  *component.Table
	alerts *component.AlertPane
	logs   *component.LogPane

	width     int
	height    int
	focus     pane
	paused    bool
	seeded    bool
	topN      int
	threshold float64

	alertTotal uint64

	pausedStyle lipgloss.Style
}

// NewDashboard builds the dashboard over a monitor service and the
// shared log ring. threshold is the alert threshold in percent, used
// for row coloring and the header.
func NewDashboard(svc *monitor.Service, buffer *logger.LogBuffer, threshold float64) *Dashboard {
	palette := style.DefaultPalette()

	table := component.NewTable(
		component.Column{Title: "#", Width: 3, Align: lipgloss.Right},
		component.Column{Title: "Symbol", Width: 12, Align: lipgloss.Left},
		component.Column{Title: "Price", Width: 14, Align: lipgloss.Right},
		component.Column{Title: "Peak", Width: 14, Align: lipgloss.Right},
		component.Column{Title: "Drop", Width: 8, Align: lipgloss.Right},
		component.Column{Title: "Since peak", Width: 11, Align: lipgloss.Right},
		component.Column{Title: "Updates", Width: 8, Align: lipgloss.Right},
	)
	table.SetFocused(true)

	return &Dashboard{
		svc:       svc,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		header:    component.NewHeader(threshold),
		table:     table,
		alerts:    component.NewAlertPane(),
		logs:      component.NewLogPane(buffer),
		topN:      minTableRows,
		threshold: threshold,

		pausedStyle: lipgloss.NewStyle().
			Foreground(palette.Warning).
			Bold(true),
	}
}

// Init starts the bus listener and the refresh ticker.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(ListenBus(), d.scheduleRefresh())
}

// Update handles key presses, refresh ticks and bus messages.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.layout(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmds = append(cmds, d.handleKey(msg))

	case refreshMsg:
		if !d.paused {
			d.pullMonitorState()
		}
		d.logs.Refresh()
		cmds = append(cmds, d.scheduleRefresh())

	case AlertMsg:
		d.alertTotal++
		d.alerts.Push(msg.Alert)
		d.header.SetAlertTotal(d.alertTotal)
		cmds = append(cmds, ListenBus())

	case StatsMsg:
		d.header.SetSnapshot(msg.Snapshot)
		cmds = append(cmds, ListenBus())

	case FeedStatusMsg:
		d.header.SetFeedStatus(msg.Kind, msg.Detail)
		cmds = append(cmds, ListenBus())

	case MonitorStateMsg:
		d.header.SetMonitorState(msg.State)
		cmds = append(cmds, ListenBus())
	}

	return d, tea.Batch(cmds...)
}

// View renders the full dashboard.
func (d *Dashboard) View() string {
	if d.width == 0 || d.height == 0 {
		return "Loading..."
	}

	sections := []string{
		d.header.View(),
		d.table.View(),
		d.alerts.View(),
	}
	if d.logs.Visible() {
		sections = append(sections, d.logs.View())
	}
	sections = append(sections, d.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.Quit):
		return tea.Quit

	case key.Matches(msg, d.keys.NextPane):
		d.cycleFocus()

	case key.Matches(msg, d.keys.Pause):
		d.paused = !d.paused

	case key.Matches(msg, d.keys.ToggleLogs):
		d.logs.Toggle()
		if !d.logs.Visible() && d.focus == paneLogs {
			d.setFocus(paneTable)
		}
		d.layout(d.width, d.height)

	case key.Matches(msg, d.keys.ToggleDebug):
		d.logs.ToggleDebug()

	case key.Matches(msg, d.keys.Help):
		d.help.ShowAll = !d.help.ShowAll

	case key.Matches(msg, d.keys.Up):
		if d.focus == paneTable {
			d.table.MoveUp()
			return nil
		}
		return d.forwardToFocused(msg)

	case key.Matches(msg, d.keys.Down):
		if d.focus == paneTable {
			d.table.MoveDown()
			return nil
		}
		return d.forwardToFocused(msg)

	default:
		return d.forwardToFocused(msg)
	}
	return nil
}

// forwardToFocused hands unclaimed keys to the focused viewport pane so
// page-scroll bindings keep working.
func (d *Dashboard) forwardToFocused(msg tea.Msg) tea.Cmd {
	switch d.focus {
	case paneAlerts:
		return d.alerts.Update(msg)
	case paneLogs:
		return d.logs.Update(msg)
	default:
		return nil
	}
}

func (d *Dashboard) cycleFocus() {
	next := d.focus + 1
	if next > paneLogs || (next == paneLogs && !d.logs.Visible()) {
		next = paneTable
	}
	d.setFocus(next)
}

func (d *Dashboard) setFocus(p pane) {
	d.focus = p
	d.table.SetFocused(p == paneTable)
	d.alerts.SetFocused(p == paneAlerts)
	d.logs.SetFocused(p == paneLogs)
}

// pullMonitorState refreshes the table and header from the monitor.
func (d *Dashboard) pullMonitorState() {
	if d.svc == nil {
		return
	}

	if !d.seeded {
		if recent := d.svc.RecentAlerts(alertPaneHeight * 4); len(recent) > 0 {
			d.alerts.Seed(recent)
			d.alertTotal = uint64(len(recent))
			d.header.SetAlertTotal(d.alertTotal)
		}
		d.seeded = true
	}

	d.header.SetSnapshot(d.svc.Snapshot())
	d.header.SetMonitorState(d.svc.State().String())

	worst := d.svc.Worst(d.topN)
	rows := make([][]string, 0, len(worst))
	now := time.Now()
	for i, ss := range worst {
		sincePeak := "-"
		if dd := ss.State.Drawdown(); dd > 0 {
			sincePeak = monitor.FormatDuration(now.Sub(ss.State.RunningMaxAt))
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			ss.Symbol,
			fmt.Sprintf("%.8f", ss.State.CurrentPrice),
			fmt.Sprintf("%.8f", ss.State.RunningMax),
			fmt.Sprintf("%.2f%%", ss.State.Drawdown()),
			sincePeak,
			fmt.Sprintf("%d", ss.State.UpdateCount),
		})
	}
	d.table.SetRows(rows)

	palette := style.DefaultPalette()
	alertStyle := lipgloss.NewStyle().Foreground(palette.Error).Bold(true).Padding(0, 1)
	warnStyle := lipgloss.NewStyle().Foreground(palette.Warning).Padding(0, 1)
	for i, ss := range worst {
		dd := ss.State.Drawdown()
		switch {
		case dd >= d.threshold:
			d.table.SetRowStyle(i, alertStyle)
		case dd >= d.threshold/2:
			d.table.SetRowStyle(i, warnStyle)
		}
	}
}

func (d *Dashboard) scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (d *Dashboard) layout(width, height int) {
	d.width = width
	d.height = height
	if width <= 0 || height <= 0 {
		return
	}

	d.header.SetWidth(width)
	d.alerts.SetSize(width, alertPaneHeight)
	d.logs.SetSize(width, logPaneHeight)
	d.help.Width = width

	// Header box is 3 lines, table chrome 4 (border, titles, rule),
	// footer 1. The table gets whatever vertical space remains.
	used := 3 + 4 + alertPaneHeight + 1
	if d.logs.Visible() {
		used += logPaneHeight
	}
	d.topN = height - used
	if d.topN < minTableRows {
		d.topN = minTableRows
	}
	if d.topN > maxTableRows {
		d.topN = maxTableRows
	}
}

func (d *Dashboard) renderFooter() string {
	footer := d.help.View(d.keys)
	if d.paused {
		footer = d.pausedStyle.Render("⏸ PAUSED") + "  " + footer
	}
	return footer
}
