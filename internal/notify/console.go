// internal/notify/console.go

// Package notify implements the alert sinks: console banner, CSV audit
// file and webhook delivery. Every sink satisfies monitor.Sink and is
// fanned out to by the dispatcher.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

var (
	alertTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	alertBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF5555")).
			Padding(0, 1)

	alertLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7280"))

	alertValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECEFF4"))

	alertDropStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB500")).
			Bold(true)
)

// ConsoleSink renders each alert as a bordered banner on the terminal.
type ConsoleSink struct {
	out io.Writer
}

var _ monitor.Sink = (*ConsoleSink)(nil)

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{out: os.Stdout}
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Deliver(ctx context.Context, alert monitor.AlertEvent) error {
	_, err := fmt.Fprintln(s.out, renderAlert(alert))
	return err
}

func renderAlert(alert monitor.AlertEvent) string {
	rows := []string{
		alertTitleStyle.Render("🚨 DIP ALERT 🚨"),
		alertRow("Symbol", alert.Symbol),
		alertRow("Current price", fmt.Sprintf("%.8f", alert.CurrentPrice)),
		alertRow("Peak price", fmt.Sprintf("%.8f", alert.RunningMax)),
		alertLabelStyle.Render(fmt.Sprintf("%-15s", "Drop:")) +
			alertDropStyle.Render(fmt.Sprintf("%.2f%%", alert.DrawdownPercent)),
		alertRow("Since peak", fmt.Sprintf("%ds", alert.SecondsSinceMax)),
		alertRow("Updates", fmt.Sprintf("%d", alert.UpdateCount)),
		alertRow("Time", alert.EmittedAt.Format("2006-01-02 15:04:05")),
	}
	return alertBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func alertRow(label, value string) string {
	return alertLabelStyle.Render(fmt.Sprintf("%-15s", label+":")) +
		alertValueStyle.Render(value)
}
