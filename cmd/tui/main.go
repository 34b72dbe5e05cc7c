// cmd/tui/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/app"
	"github.com/rovshanmuradov/dip-monitor/internal/config"
	"github.com/rovshanmuradov/dip-monitor/internal/events"
	"github.com/rovshanmuradov/dip-monitor/internal/feed"
	"github.com/rovshanmuradov/dip-monitor/internal/logger"
	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
	"github.com/rovshanmuradov/dip-monitor/internal/ui"
)

const logBufferCapacity = 512

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *debug {
		cfg.DebugLogging = true
	}

	// The TUI owns the terminal, so log output goes to the ring buffer
	// shown in the log pane and, optionally, to the log file.
	buffer := logger.NewLogBuffer(logBufferCapacity)
	appLogger, err := logger.CreateTUILoggerWithBuffer(cfg.DebugLogging, buffer, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync(appLogger) }()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(rootCtx, cfg, appLogger, app.WithoutConsoleAlerts())
	if err != nil {
		appLogger.Error("Failed to build monitor", zap.Error(err))
		log.Fatalf("Failed to build monitor: %v", err)
	}

	bridgeBusToUI(runner.Bus())

	runCtx, cancelRun := context.WithCancel(rootCtx)
	defer cancelRun()

	program := tea.NewProgram(
		ui.NewDashboard(runner.Service(), buffer, cfg.DipThresholdPct),
		tea.WithAltScreen(),
	)

	runDone := make(chan error, 1)
	go func() {
		err := runner.Run(runCtx)
		runDone <- err
		// The session ended on its own; take the dashboard down with it.
		program.Quit()
	}()

	go func() {
		<-rootCtx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		appLogger.Error("💥 Dashboard failed", zap.Error(err))
	}

	// Quitting the dashboard ends the session too.
	cancelRun()
	if err := <-runDone; err != nil {
		appLogger.Error("Monitor session failed", zap.Error(err))
	}
}

// bridgeBusToUI forwards process events into the dashboard message
// channel. Handlers never block: ui.Publish drops when the channel is
// full.
func bridgeBusToUI(bus *events.Bus) {
	bus.SubscribeFunc(events.AlertTriggered, func(_ context.Context, ev events.Event) error {
		if alert, ok := ev.(events.AlertTriggeredEvent); ok {
			ui.PublishAlert(alert.Alert)
		}
		return nil
	})
	bus.SubscribeFunc(events.StatsSnapshot, func(_ context.Context, ev events.Event) error {
		if snap, ok := ev.(events.StatsSnapshotEvent); ok {
			ui.PublishStats(snap.Snapshot)
		}
		return nil
	})
	bus.SubscribeFunc(events.FeedStatusChanged, func(_ context.Context, ev events.Event) error {
		if status, ok := ev.(events.FeedStatusEvent); ok {
			ui.PublishFeedStatus(feed.StatusKind(status.Kind), status.Detail)
		}
		return nil
	})
	bus.SubscribeFunc(events.MonitorStarted, func(_ context.Context, ev events.Event) error {
		if _, ok := ev.(events.MonitorStartedEvent); ok {
			ui.PublishMonitorState(monitor.StateRunning.String(), "")
		}
		return nil
	})
	bus.SubscribeFunc(events.MonitorStopped, func(_ context.Context, ev events.Event) error {
		if stopEv, ok := ev.(events.MonitorStoppedEvent); ok {
			ui.PublishMonitorState(monitor.StateStopped.String(), stopEv.Reason)
		}
		return nil
	})
}
