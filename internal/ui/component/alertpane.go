// internal/ui/component/alertpane.go
package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
	"github.com/rovshanmuradov/dip-monitor/internal/ui/style"
)

const alertPaneCapacity = 200

// AlertPane shows the most recent dip alerts in a scrollable viewport,
// newest at the bottom. It keeps its own bounded copy of alerts so the
// view survives monitor restarts.
type AlertPane struct {
	alerts   []monitor.AlertEvent
	viewport viewport.Model
	width    int
	height   int
	focused  bool

	containerStyle lipgloss.Style
	titleStyle     lipgloss.Style
	timeStyle      lipgloss.Style
	symbolStyle    lipgloss.Style
	dropStyle      lipgloss.Style
	priceStyle     lipgloss.Style
	emptyStyle     lipgloss.Style
}

// NewAlertPane creates an empty alert pane.
func NewAlertPane() *AlertPane {
	palette := style.DefaultPalette()

	return &AlertPane{
		viewport: viewport.New(60, 6),

		containerStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted).
			Padding(0, 1),

		titleStyle: lipgloss.NewStyle().
			Foreground(palette.Accent).
			Bold(true),

		timeStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),

		symbolStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Bold(true),

		dropStyle: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true),

		priceStyle: lipgloss.NewStyle().
			Foreground(palette.TextSecondary),

		emptyStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted).
			Italic(true),
	}
}

// Push appends an alert, evicting the oldest past capacity, and keeps
// the viewport pinned to the newest entry.
func (p *AlertPane) Push(alert monitor.AlertEvent) {
	p.alerts = append(p.alerts, alert)
	if len(p.alerts) > alertPaneCapacity {
		p.alerts = p.alerts[len(p.alerts)-alertPaneCapacity:]
	}
	p.refresh()
	p.viewport.GotoBottom()
}

// Seed replaces the pane contents, oldest first. Used on startup to
// backfill alerts that fired before the dashboard attached.
func (p *AlertPane) Seed(alerts []monitor.AlertEvent) {
	p.alerts = p.alerts[:0]
	p.alerts = append(p.alerts, alerts...)
	p.refresh()
	p.viewport.GotoBottom()
}

// Count returns how many alerts the pane holds.
func (p *AlertPane) Count() int {
	return len(p.alerts)
}

// SetFocused toggles the focus highlight and scroll routing.
func (p *AlertPane) SetFocused(focused bool) {
	p.focused = focused
}

// SetSize sets the pane's outer dimensions.
func (p *AlertPane) SetSize(width, height int) {
	p.width = width
	p.height = height

	p.containerStyle = p.containerStyle.Width(width - 2)
	p.viewport.Width = width - 4
	p.viewport.Height = height - 3
	if p.viewport.Height < 1 {
		p.viewport.Height = 1
	}
	p.refresh()
}

// Update routes scroll keys into the viewport while the pane has focus.
func (p *AlertPane) Update(msg tea.Msg) tea.Cmd {
	if !p.focused {
		return nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the pane.
func (p *AlertPane) View() string {
	title := p.titleStyle.Render(fmt.Sprintf("🚨 Alerts (%d)", len(p.alerts)))
	body := lipgloss.JoinVertical(lipgloss.Left, title, p.viewport.View())

	container := p.containerStyle
	if p.focused {
		container = container.BorderForeground(style.DefaultPalette().Primary)
	}
	return container.Render(body)
}

func (p *AlertPane) refresh() {
	if len(p.alerts) == 0 {
		p.viewport.SetContent(p.emptyStyle.Render("No alerts yet. Waiting for drawdowns to cross the threshold."))
		return
	}

	lines := make([]string, 0, len(p.alerts))
	for _, a := range p.alerts {
		lines = append(lines, p.formatAlert(a))
	}
	p.viewport.SetContent(strings.Join(lines, "\n"))
}

func (p *AlertPane) formatAlert(a monitor.AlertEvent) string {
	return fmt.Sprintf("%s %s %s %s",
		p.timeStyle.Render(a.EmittedAt.Format("15:04:05")),
		p.symbolStyle.Render(fmt.Sprintf("%-12s", a.Symbol)),
		p.dropStyle.Render(fmt.Sprintf("-%.2f%%", a.DrawdownPercent)),
		p.priceStyle.Render(fmt.Sprintf("%.8f from peak %.8f (%ds)",
			a.CurrentPrice, a.RunningMax, a.SecondsSinceMax)))
}
