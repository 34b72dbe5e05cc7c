// internal/ui/component/header.go
package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/dip-monitor/internal/feed"
	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
	"github.com/rovshanmuradov/dip-monitor/internal/ui/style"
)

// Header is the dashboard status bar: feed connection state, symbol
// coverage, alert total and session uptime.
type Header struct {
	feedKind   feed.StatusKind
	feedDetail string
	monState   string
	snapshot   monitor.MonitorSnapshot
	alertTotal uint64
	threshold  float64
	width      int

	containerStyle lipgloss.Style
	titleStyle     lipgloss.Style
	labelStyle     lipgloss.Style
	valueStyle     lipgloss.Style
	goodStyle      lipgloss.Style
	warnStyle      lipgloss.Style
	badStyle       lipgloss.Style
}

// NewHeader creates a header for the given alert threshold.
func NewHeader(threshold float64) *Header {
	palette := style.DefaultPalette()

	return &Header{
		feedKind:  feed.StatusDisconnected,
		monState:  "stopped",
		threshold: threshold,

		containerStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Primary).
			Padding(0, 2),

		titleStyle: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true),

		labelStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),

		valueStyle: lipgloss.NewStyle().
			Foreground(palette.Text),

		goodStyle: lipgloss.NewStyle().
			Foreground(palette.Success).
			Bold(true),

		warnStyle: lipgloss.NewStyle().
			Foreground(palette.Warning).
			Bold(true),

		badStyle: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true),
	}
}

// SetFeedStatus records the latest feed transition.
func (h *Header) SetFeedStatus(kind feed.StatusKind, detail string) {
	h.feedKind = kind
	h.feedDetail = detail
}

// SetMonitorState records the monitor lifecycle state.
func (h *Header) SetMonitorState(state string) {
	h.monState = state
}

// SetSnapshot updates the coverage figures.
func (h *Header) SetSnapshot(snap monitor.MonitorSnapshot) {
	h.snapshot = snap
}

// SetAlertTotal updates the session alert counter.
func (h *Header) SetAlertTotal(total uint64) {
	h.alertTotal = total
}

// SetWidth sets the header width for layout.
func (h *Header) SetWidth(width int) {
	h.width = width
	h.containerStyle = h.containerStyle.Width(width - 2)
}

// View renders the header bar.
func (h *Header) View() string {
	segments := []string{
		h.titleStyle.Render("📉 DIP MONITOR"),
		h.renderFeed(),
		h.labelStyle.Render("monitor ") + h.valueStyle.Render(h.monState),
		h.labelStyle.Render("threshold ") + h.valueStyle.Render(fmt.Sprintf("%.1f%%", h.threshold)),
		h.labelStyle.Render("symbols ") + h.valueStyle.Render(fmt.Sprintf("%d/%d/%d",
			h.snapshot.TotalSymbols, h.snapshot.SymbolsWithData, h.snapshot.ActiveSymbols)),
		h.labelStyle.Render("alerts ") + h.renderAlertTotal(),
		h.labelStyle.Render("uptime ") + h.valueStyle.Render(monitor.FormatDuration(h.snapshot.Uptime)),
	}

	return h.containerStyle.Render(strings.Join(segments, "  •  "))
}

func (h *Header) renderFeed() string {
	var chip string
	switch h.feedKind {
	case feed.StatusConnected, feed.StatusSubscribed:
		return h.goodStyle.Render("● LIVE")
	case feed.StatusReconnecting:
		chip = h.warnStyle.Render("● RECONNECTING")
	case feed.StatusSubscribeFailed:
		chip = h.warnStyle.Render("● SUBSCRIBE FAILED")
	default:
		chip = h.badStyle.Render("● OFFLINE")
	}

	if detail := []rune(h.feedDetail); len(detail) > 0 {
		if len(detail) > 32 {
			detail = append(detail[:31], '…')
		}
		chip += " " + h.labelStyle.Render(string(detail))
	}
	return chip
}

func (h *Header) renderAlertTotal() string {
	if h.alertTotal > 0 {
		return h.badStyle.Render(fmt.Sprintf("%d", h.alertTotal))
	}
	return h.valueStyle.Render("0")
}
