// internal/ui/component/logpane.go
package component

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/dip-monitor/internal/logger"
	"github.com/rovshanmuradov/dip-monitor/internal/ui/style"
)

// LogPane tails the shared in-memory log ring inside a viewport. The
// zap core writes into the buffer; the pane re-reads it on every
// refresh tick so no log subscription plumbing is needed.
type LogPane struct {
	buffer    *logger.LogBuffer
	viewport  viewport.Model
	width     int
	height    int
	focused   bool
	visible   bool
	showDebug bool
	lastTotal uint64

	containerStyle lipgloss.Style
	titleStyle     lipgloss.Style
	timeStyle      lipgloss.Style
	fieldStyle     lipgloss.Style
	errorStyle     lipgloss.Style
	warnStyle      lipgloss.Style
	infoStyle      lipgloss.Style
	debugStyle     lipgloss.Style
}

// NewLogPane creates a log pane over buffer. The pane starts visible
// with debug lines hidden.
func NewLogPane(buffer *logger.LogBuffer) *LogPane {
	palette := style.DefaultPalette()

	return &LogPane{
		buffer:   buffer,
		visible:  true,
		viewport: viewport.New(60, 5),

		containerStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted).
			Padding(0, 1),

		titleStyle: lipgloss.NewStyle().
			Foreground(palette.Info).
			Bold(true),

		timeStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),

		fieldStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),

		errorStyle: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true),

		warnStyle: lipgloss.NewStyle().
			Foreground(palette.Warning),

		infoStyle: lipgloss.NewStyle().
			Foreground(palette.Text),

		debugStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),
	}
}

// Toggle flips the pane visibility.
func (p *LogPane) Toggle() {
	p.visible = !p.visible
}

// Visible reports whether the pane currently renders.
func (p *LogPane) Visible() bool {
	return p.visible
}

// ToggleDebug flips debug-line filtering and redraws.
func (p *LogPane) ToggleDebug() {
	p.showDebug = !p.showDebug
	p.lastTotal = 0
	p.Refresh()
}

// SetFocused toggles the focus highlight and scroll routing.
func (p *LogPane) SetFocused(focused bool) {
	p.focused = focused
}

// SetSize sets the pane's outer dimensions.
func (p *LogPane) SetSize(width, height int) {
	p.width = width
	p.height = height

	p.containerStyle = p.containerStyle.Width(width - 2)
	p.viewport.Width = width - 4
	p.viewport.Height = height - 3
	if p.viewport.Height < 1 {
		p.viewport.Height = 1
	}
	p.lastTotal = 0
	p.Refresh()
}

// Refresh re-reads the buffer when new entries have landed since the
// last draw. Pinned to the bottom unless the user scrolled away.
func (p *LogPane) Refresh() {
	if p.buffer == nil {
		return
	}
	total := p.buffer.Total()
	if total == p.lastTotal {
		return
	}
	p.lastTotal = total

	entries := p.buffer.Recent(200)
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !p.showDebug && strings.EqualFold(entry.Level, "debug") {
			continue
		}
		lines = append(lines, p.formatEntry(entry))
	}
	if len(lines) == 0 {
		lines = append(lines, p.debugStyle.Render("no log entries"))
	}

	atBottom := p.viewport.AtBottom()
	p.viewport.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		p.viewport.GotoBottom()
	}
}

// Update routes scroll keys into the viewport while the pane has focus.
func (p *LogPane) Update(msg tea.Msg) tea.Cmd {
	if !p.focused || !p.visible {
		return nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the pane, or nothing while hidden.
func (p *LogPane) View() string {
	if !p.visible {
		return ""
	}

	title := "Logs"
	if p.showDebug {
		title = "Logs (debug)"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		p.titleStyle.Render(title),
		p.viewport.View())

	container := p.containerStyle
	if p.focused {
		container = container.BorderForeground(style.DefaultPalette().Primary)
	}
	return container.Render(body)
}

func (p *LogPane) formatEntry(entry logger.LogEntry) string {
	levelStyle := p.infoStyle
	switch strings.ToLower(entry.Level) {
	case "error", "fatal", "panic":
		levelStyle = p.errorStyle
	case "warn", "warning":
		levelStyle = p.warnStyle
	case "debug":
		levelStyle = p.debugStyle
	}

	line := fmt.Sprintf("%s %s",
		p.timeStyle.Render(entry.Timestamp.Format("15:04:05")),
		levelStyle.Render(entry.Message))

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		line += " " + p.fieldStyle.Render(strings.Join(pairs, " "))
	}
	return line
}
