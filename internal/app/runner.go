// internal/app/runner.go

// Package app wires configuration, metrics, the exchange feed and the
// monitor core into one supervised process shared by every entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/dip-monitor/internal/config"
	"github.com/rovshanmuradov/dip-monitor/internal/events"
	"github.com/rovshanmuradov/dip-monitor/internal/feed"
	"github.com/rovshanmuradov/dip-monitor/internal/feed/gateio"
	"github.com/rovshanmuradov/dip-monitor/internal/metrics"
	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
	"github.com/rovshanmuradov/dip-monitor/internal/notify"
)

const (
	busBufferSize   = 1024
	shutdownTimeout = 5 * time.Second
)

// Option adjusts runner assembly.
type Option func(*options)

type options struct {
	consoleAlerts bool
}

// WithoutConsoleAlerts suppresses the stdout alert sink. The TUI
// entrypoint uses this so alert blocks do not tear the dashboard.
func WithoutConsoleAlerts() Option {
	return func(o *options) { o.consoleAlerts = false }
}

// Runner owns every long-lived component of one monitoring process.
type Runner struct {
	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector
	bus       *events.Bus
	svc       *monitor.Service
	feed      feed.Feed
	universe  []string
	shutdown  *ShutdownHandler
}

// NewRunner resolves the watchlist and wires every collaborator. ctx
// bounds pair discovery over REST; the components themselves live until
// Run returns.
func NewRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Runner, error) {
	o := options{consoleAlerts: true}
	for _, opt := range opts {
		opt(&o)
	}

	universe := resolveUniverse(ctx, cfg, logger)
	if len(universe) == 0 {
		return nil, errors.New("resolved symbol universe is empty")
	}

	collector := metrics.NewCollector(logger)
	bus := events.NewBus(logger, busBufferSize)

	svc := monitor.NewService(monitor.Config{
		Policy: monitor.AlertPolicy{
			ThresholdPercent: cfg.DipThresholdPct,
			Cooldown:         cfg.AlertCooldown,
			OncePerPeak:      cfg.AlertOncePerPeak,
		},
		StatsInterval:  cfg.StatsInterval,
		Universe:       universe,
		AlertQueueSize: cfg.AlertQueueSize,
		StopGrace:      shutdownTimeout,
	}, newBusBridge(bus, len(universe), cfg.DipThresholdPct), collector, logger)

	r := &Runner{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		bus:       bus,
		svc:       svc,
		universe:  universe,
		shutdown:  NewShutdownHandler(logger, shutdownTimeout),
	}

	// Close order is the reverse of registration: the monitor drains its
	// alert queue into the sinks before the sinks and the bus go away.
	r.shutdown.AddFunc("event_bus", func() error {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return bus.Shutdown(sctx)
	})

	if err := r.registerSinks(o.consoleAlerts); err != nil {
		return nil, err
	}

	r.feed = gateio.NewClient(gateio.Config{
		URL:       cfg.WSURL,
		Symbols:   universe,
		BatchSize: cfg.SubscribeBatchSize,
	}, feed.NewNormalizer(logger), logger)

	return r, nil
}

// Service exposes the monitor core for read-side consumers such as the
// dashboard.
func (r *Runner) Service() *monitor.Service { return r.svc }

// Bus exposes the event bus so entrypoints can attach subscribers
// before Run starts publishing.
func (r *Runner) Bus() *events.Bus { return r.bus }

// Universe returns a copy of the resolved watchlist.
func (r *Runner) Universe() []string {
	return append([]string(nil), r.universe...)
}

func (r *Runner) registerSinks(consoleAlerts bool) error {
	if consoleAlerts {
		r.svc.RegisterSink(notify.NewConsoleSink())
	}
	if r.cfg.AlertLogDir != "" {
		csvSink, err := notify.NewCSVSink(r.cfg.AlertLogDir, r.logger)
		if err != nil {
			return fmt.Errorf("alert csv sink: %w", err)
		}
		r.svc.RegisterSink(csvSink)
		r.shutdown.Add("alert_csv", csvSink)
	}
	if r.cfg.WebhookURL != "" {
		r.svc.RegisterSink(notify.NewWebhookSink(r.cfg.WebhookURL, r.logger))
	}
	return nil
}

// Run starts the monitoring session and blocks until ctx is cancelled
// or a component fails. Registered services close in reverse start
// order before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.svc.Start(ctx); err != nil {
		if shutdownErr := r.shutdown.Shutdown(); shutdownErr != nil {
			r.logger.Warn("Shutdown finished with errors", zap.Error(shutdownErr))
		}
		return fmt.Errorf("start monitor: %w", err)
	}
	r.shutdown.AddFunc("monitor", func() error {
		if r.svc.State() != monitor.StateRunning {
			return nil
		}
		return r.svc.Stop()
	})

	workers := r.workerCount()
	r.logger.Info("🚀 Dip monitor started",
		zap.Int("pairs", len(r.universe)),
		zap.Float64("threshold_percent", r.cfg.DipThresholdPct),
		zap.Int("workers", workers))

	g, gCtx := errgroup.WithContext(ctx)

	if addr := r.cfg.MetricsAddr; addr != "" {
		g.Go(func() error {
			return r.collector.Serve(gCtx, addr)
		})
	}

	feedCh := make(chan feed.Event, r.eventBuffer())
	g.Go(func() error {
		return r.feed.Run(gCtx, feedCh)
	})

	for i := 1; i <= workers; i++ {
		id := i
		g.Go(func() error {
			return r.worker(gCtx, id, feedCh)
		})
	}

	err := g.Wait()

	if shutdownErr := r.shutdown.Shutdown(); shutdownErr != nil {
		r.logger.Warn("Shutdown finished with errors", zap.Error(shutdownErr))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("monitor session: %w", err)
	}
	r.logger.Info("👋 Dip monitor stopped")
	return nil
}

func (r *Runner) workerCount() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}
	return config.DefaultWorkers
}

func (r *Runner) eventBuffer() int {
	if r.cfg.EventBuffer > 0 {
		return r.cfg.EventBuffer
	}
	return config.DefaultEventBuffer
}

// resolveUniverse decides which symbols the session watches. Explicit
// pairs win; otherwise the watchlist comes from exchange discovery,
// falling back to the built-in list when the exchange is unreachable.
func resolveUniverse(ctx context.Context, cfg *config.Config, logger *zap.Logger) []string {
	log := logger.Named("universe")

	if len(cfg.Pairs) > 0 {
		seen := make(map[string]struct{}, len(cfg.Pairs))
		out := make([]string, 0, len(cfg.Pairs))
		for _, raw := range cfg.Pairs {
			symbol := feed.CanonicalSymbol(raw)
			if symbol == "" {
				continue
			}
			if _, dup := seen[symbol]; dup {
				continue
			}
			seen[symbol] = struct{}{}
			out = append(out, symbol)
		}
		log.Info("📋 Using configured pairs", zap.Int("count", len(out)))
		return out
	}

	rest := gateio.NewRESTClient(cfg.RESTURL, logger)
	pairs, err := rest.ListCurrencyPairs(ctx)
	if err != nil {
		log.Warn("Pair discovery failed, using default universe", zap.Error(err))
		return gateio.DefaultUniverse()
	}

	universe := gateio.SelectUniverse(pairs, cfg.QuoteFilter, cfg.MaxPairs)
	if len(universe) == 0 {
		log.Warn("No tradable pairs matched the filter, using default universe",
			zap.String("quote_filter", cfg.QuoteFilter))
		return gateio.DefaultUniverse()
	}

	log.Info("📋 Discovered tradable pairs",
		zap.Int("count", len(universe)),
		zap.String("quote_filter", cfg.QuoteFilter),
		zap.Int("max_pairs", cfg.MaxPairs))
	return universe
}
