// cmd/dipmon/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/app"
	"github.com/rovshanmuradov/dip-monitor/internal/config"
	"github.com/rovshanmuradov/dip-monitor/internal/logger"
)

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

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	appLogger, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync(appLogger) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to build monitor", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		appLogger.Fatal("Monitor session failed", zap.Error(err))
	}
}
