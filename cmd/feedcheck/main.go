// cmd/feedcheck/main.go

// feedcheck probes gate.io connectivity without starting the monitor:
// it lists currency pairs over REST, subscribes to a handful of tickers
// and prints the first normalized ticks it receives. Useful when an
// alert drought could be either a quiet market or a broken feed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/config"
	"github.com/rovshanmuradov/dip-monitor/internal/feed"
	"github.com/rovshanmuradov/dip-monitor/internal/feed/gateio"
	"github.com/rovshanmuradov/dip-monitor/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to config file")
	pairsFlag := flag.String("pairs", "BTC_USDT,ETH_USDT,SOL_USDT", "Comma-separated pairs to subscribe")
	discover := flag.Bool("discover", false, "Ignore -pairs and subscribe to the discovered universe")
	count := flag.Int("count", 20, "Stop after this many ticks")
	timeout := flag.Duration("timeout", time.Minute, "Give up after this long")
	dumpFile := flag.String("dump", "", "Append received ticks as JSON lines to this file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	probeLogger, err := logger.CreatePrettyLogger(true)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync(probeLogger) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	symbols := probeUniverse(ctx, cfg, probeLogger, *pairsFlag, *discover)
	if len(symbols) == 0 {
		probeLogger.Fatal("No symbols to probe")
	}
	probeLogger.Info("Probing ticker feed",
		zap.Int("pairs", len(symbols)),
		zap.Int("want_ticks", *count))

	var dump *logger.SafeFileWriter
	if *dumpFile != "" {
		dump, err = logger.NewSafeFileWriter(*dumpFile, time.Second, probeLogger)
		if err != nil {
			probeLogger.Fatal("Failed to open dump file", zap.Error(err))
		}
		defer func() { _ = dump.Close() }()
	}

	client := gateio.NewClient(gateio.Config{
		URL:       cfg.WSURL,
		Symbols:   symbols,
		BatchSize: cfg.SubscribeBatchSize,
	}, feed.NewNormalizer(probeLogger), probeLogger)

	feedCh := make(chan feed.Event, 256)
	feedDone := make(chan error, 1)
	go func() { feedDone <- client.Run(ctx, feedCh) }()

	received := 0
	for received < *count {
		select {
		case <-ctx.Done():
			reportAndExit(probeLogger, client, received, *count)
		case ev := <-feedCh:
			switch ev.Type {
			case feed.EventTick:
				received++
				probeLogger.Info("Tick",
					zap.String("symbol", ev.Tick.Symbol),
					zap.Float64("price", ev.Tick.Price),
					zap.Time("observed_at", ev.Tick.ObservedAt))
				if dump != nil {
					if line, err := json.Marshal(ev.Tick); err == nil {
						_ = dump.WriteLine(string(line))
					}
				}
			case feed.EventStatus:
				probeLogger.Info("Feed status",
					zap.String("kind", string(ev.Status.Kind)),
					zap.String("detail", ev.Status.Detail))
			case feed.EventError:
				probeLogger.Warn("Feed error", zap.Error(ev.Err))
			}
		}
	}

	cancel()
	<-feedDone
	reconnects, ticks, dropped := client.Stats()
	probeLogger.Info("✅ Feed check passed",
		zap.Int("printed", received),
		zap.Uint64("total_ticks", ticks),
		zap.Uint64("reconnects", reconnects),
		zap.Uint64("dropped", dropped))
}

func probeUniverse(ctx context.Context, cfg *config.Config, log *zap.Logger, pairsFlag string, discover bool) []string {
	if !discover {
		var symbols []string
		for _, raw := range strings.Split(pairsFlag, ",") {
			if symbol := feed.CanonicalSymbol(raw); symbol != "" {
				symbols = append(symbols, symbol)
			}
		}
		return symbols
	}

	rest := gateio.NewRESTClient(cfg.RESTURL, log)
	pairs, err := rest.ListCurrencyPairs(ctx)
	if err != nil {
		log.Fatal("Pair discovery failed", zap.Error(err))
	}
	log.Info("Listed currency pairs", zap.Int("count", len(pairs)))
	return gateio.SelectUniverse(pairs, cfg.QuoteFilter, cfg.MaxPairs)
}

func reportAndExit(log *zap.Logger, client *gateio.Client, received, want int) {
	reconnects, ticks, dropped := client.Stats()
	log.Fatal("Feed check timed out",
		zap.Int("printed", received),
		zap.Int("want", want),
		zap.Uint64("total_ticks", ticks),
		zap.Uint64("reconnects", reconnects),
		zap.Uint64("dropped", dropped))
}
