// internal/feed/gateio/client.go
package gateio

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/feed"
)

const (
	defaultBatchSize    = 100
	defaultPingInterval = 15 * time.Second
	defaultReadTimeout  = 60 * time.Second

	dialTimeout     = 10 * time.Second
	interBatchPause = 50 * time.Millisecond
)

// Config holds the websocket session parameters.
type Config struct {
	URL          string
	Symbols      []string
	BatchSize    int
	PingInterval time.Duration
	ReadTimeout  time.Duration
}

// Client maintains a gate.io v4 spot.tickers subscription and emits
// normalized feed events. It reconnects with exponential backoff and
// never blocks on a slow consumer.
type Client struct {
	cfg        Config
	normalizer *feed.Normalizer
	logger     *zap.Logger

	reconnects atomic.Uint64
	ticks      atomic.Uint64
	dropped    atomic.Uint64
}

func NewClient(cfg Config, normalizer *feed.Normalizer, logger *zap.Logger) *Client {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if normalizer == nil {
		normalizer = feed.NewNormalizer(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		normalizer: normalizer,
		logger:     logger.Named("gateio_ws"),
	}
}

// Run dials, subscribes and pumps frames until ctx is cancelled. Every
// dropped connection is re-established with exponential backoff; the
// only way out is ctx cancellation.
func (c *Client) Run(ctx context.Context, out chan<- feed.Event) error {
	for {
		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("connect to %s: %w", c.cfg.URL, err)
		}

		c.emit(out, feed.StatusEvent(feed.StatusConnected,
			fmt.Sprintf("%d pairs requested", len(c.cfg.Symbols))))

		pumpErr := c.pump(ctx, conn, out)
		_ = conn.Close()

		if ctx.Err() != nil {
			c.emit(out, feed.StatusEvent(feed.StatusDisconnected, "shutdown"))
			return ctx.Err()
		}

		c.reconnects.Add(1)
		c.logger.Warn("Connection lost, reconnecting",
			zap.Error(pumpErr),
			zap.Uint64("reconnects", c.reconnects.Load()))
		c.emit(out, feed.StatusEvent(feed.StatusReconnecting, pumpErr.Error()))
	}
}

// Stats reports session counters: reconnects, ticks emitted and events
// dropped on consumer backpressure.
func (c *Client) Stats() (reconnects, ticks, dropped uint64) {
	return c.reconnects.Load(), c.ticks.Load(), c.dropped.Load()
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	op := func() (*websocket.Conn, error) {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()

		conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.cfg.URL, nil)
		if err != nil {
			c.logger.Warn("Dial failed, will retry", zap.Error(err))
			return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
		}

		if err := c.subscribe(conn); err != nil {
			_ = conn.Close()
			c.logger.Warn("Subscribe failed, will retry", zap.Error(err))
			return nil, err
		}
		return conn, nil
	}

	return backoff.Retry(ctx, op, backoff.WithBackOff(backoff.NewExponentialBackOff()))
}

func (c *Client) subscribe(conn *websocket.Conn) error {
	for _, batch := range batches(c.cfg.Symbols, c.cfg.BatchSize) {
		req := wsRequest{
			Time:    time.Now().Unix(),
			Channel: channelTickers,
			Event:   eventSubscribe,
			Payload: batch,
		}
		if err := conn.WriteJSON(req); err != nil {
			return fmt.Errorf("subscribe %s: %w", channelTickers, err)
		}
		time.Sleep(interBatchPause)
	}

	c.logger.Info("📡 Subscribed to ticker channel",
		zap.Int("pairs", len(c.cfg.Symbols)),
		zap.Int("batches", len(batches(c.cfg.Symbols, c.cfg.BatchSize))))
	return nil
}

// pump reads frames until the connection breaks or ctx is cancelled.
// The watcher goroutine closes the connection on cancellation, which
// unblocks the pending read.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn, out chan<- feed.Event) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	go c.pingLoop(ctx, conn, done)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		c.handleFrame(data, out)
	}
}

// pingLoop keeps quiet subscriptions alive with application-level
// pings. It is the only writer once subscribe completes.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			req := wsRequest{Time: time.Now().Unix(), Channel: channelPing}
			if err := conn.WriteJSON(req); err != nil {
				c.logger.Debug("Ping write failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) handleFrame(data []byte, out chan<- feed.Event) {
	var frame wsFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.emit(out, feed.ErrorEvent(fmt.Errorf("decode frame: %w", err)))
		return
	}

	if frame.Error != nil {
		c.logger.Warn("Server rejected request",
			zap.String("channel", frame.Channel),
			zap.Int("code", frame.Error.Code),
			zap.String("message", frame.Error.Message))
		c.emit(out, feed.StatusEvent(feed.StatusSubscribeFailed, frame.Error.Error()))
		return
	}

	switch {
	case frame.Channel == channelPong:
		// keepalive echo

	case frame.Event == eventSubscribe:
		var res subscribeResult
		_ = json.Unmarshal(frame.Result, &res)
		if res.Status == "success" {
			c.emit(out, feed.StatusEvent(feed.StatusSubscribed, frame.Channel))
		} else {
			c.emit(out, feed.StatusEvent(feed.StatusSubscribeFailed, frame.Channel))
		}

	case frame.Event == eventUpdate && frame.Channel == channelTickers:
		c.handleTicker(frame.Result, out)
	}
}

func (c *Client) handleTicker(result json.RawMessage, out chan<- feed.Event) {
	var fields map[string]any
	if err := json.Unmarshal(result, &fields); err != nil {
		c.emit(out, feed.ErrorEvent(fmt.Errorf("decode ticker: %w", err)))
		return
	}

	instrument, _ := fields["currency_pair"].(string)
	tick, ok := c.normalizer.Normalize(feed.RawTicker{
		Instrument: instrument,
		Fields:     fields,
		At:         time.Now(),
	})
	if !ok {
		return
	}

	c.ticks.Add(1)
	c.emit(out, feed.TickEvent(tick))
}

func (c *Client) emit(out chan<- feed.Event, ev feed.Event) {
	select {
	case out <- ev:
	default:
		n := c.dropped.Add(1)
		if n%1000 == 1 {
			c.logger.Warn("Consumer is slow, dropping feed events",
				zap.Uint64("dropped_total", n))
		}
	}
}

func batches(symbols []string, size int) [][]string {
	if size <= 0 || len(symbols) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[start:end])
	}
	return out
}
