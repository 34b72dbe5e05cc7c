// internal/metrics/metrics.go

// Package metrics exposes the monitor's Prometheus instrumentation.
// The Collector implements monitor.Recorder so the core stays free of
// any Prometheus dependency.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

const namespace = "dipmon"

// Collector owns the metric set and its registry. Every counter is
// registered on a private registry so independent collectors never
// collide.
type Collector struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	ticksTotal       prometheus.Counter
	ticksDropped     *prometheus.CounterVec
	tickApplySeconds prometheus.Histogram

	alertsTotal   *prometheus.CounterVec
	alertsDropped prometheus.Counter
	sinkErrors    *prometheus.CounterVec

	feedReconnects prometheus.Counter

	symbolsTracked  prometheus.Gauge
	symbolsWithData prometheus.Gauge
	symbolsActive   prometheus.Gauge
	uptimeSeconds   prometheus.Gauge
}

var _ monitor.Recorder = (*Collector)(nil)

func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logger.Named("metrics"),

		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of ticks applied to the store",
		}),
		ticksDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_dropped_total",
			Help:      "Ticks rejected before reaching the store",
		}, []string{"reason"}),
		tickApplySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_apply_seconds",
			Help:      "Time spent applying one tick",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}),

		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Dip alerts emitted",
		}, []string{"symbol"}),
		alertsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_dropped_total",
			Help:      "Alerts dropped because the dispatch queue was full",
		}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Alert delivery failures per sink",
		}, []string{"sink"}),

		feedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_reconnects_total",
			Help:      "Websocket reconnections",
		}),

		symbolsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "symbols_tracked",
			Help:      "Symbols known to the store",
		}),
		symbolsWithData: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "symbols_with_data",
			Help:      "Symbols that received at least one tick",
		}),
		symbolsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "symbols_active",
			Help:      "Symbols with a current positive price",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the monitoring session started",
		}),
	}

	c.registry.MustRegister(
		c.ticksTotal, c.ticksDropped, c.tickApplySeconds,
		c.alertsTotal, c.alertsDropped, c.sinkErrors,
		c.feedReconnects,
		c.symbolsTracked, c.symbolsWithData, c.symbolsActive, c.uptimeSeconds,
	)

	return c
}

// TickApplied records a successful store update.
func (c *Collector) TickApplied(elapsed time.Duration) {
	c.ticksTotal.Inc()
	c.tickApplySeconds.Observe(elapsed.Seconds())
}

// TickDropped records a tick rejected by validation or state checks.
func (c *Collector) TickDropped(reason string) {
	c.ticksDropped.WithLabelValues(reason).Inc()
}

// AlertEmitted records one emitted dip alert.
func (c *Collector) AlertEmitted(symbol string) {
	c.alertsTotal.WithLabelValues(symbol).Inc()
}

// AlertDropped records an alert lost to dispatcher backpressure.
func (c *Collector) AlertDropped() {
	c.alertsDropped.Inc()
}

// SinkError records a failed delivery attempt.
func (c *Collector) SinkError(sink string) {
	c.sinkErrors.WithLabelValues(sink).Inc()
}

// SnapshotTaken refreshes the coverage gauges from a periodic report.
func (c *Collector) SnapshotTaken(snap monitor.MonitorSnapshot) {
	c.symbolsTracked.Set(float64(snap.TotalSymbols))
	c.symbolsWithData.Set(float64(snap.SymbolsWithData))
	c.symbolsActive.Set(float64(snap.ActiveSymbols))
	c.uptimeSeconds.Set(snap.Uptime.Seconds())
}

// FeedReconnect records one websocket reconnection.
func (c *Collector) FeedReconnect() {
	c.feedReconnects.Inc()
}

// Handler serves this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve runs the /metrics endpoint until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	c.logger.Info("📡 Metrics endpoint listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	}
}
