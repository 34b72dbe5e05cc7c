package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captureSink struct {
	mu    sync.Mutex
	name  string
	got   []AlertEvent
	fail  error
	delay time.Duration
}

func (c *captureSink) Name() string { return c.name }

func (c *captureSink) Deliver(ctx context.Context, alert AlertEvent) error {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.fail != nil {
		return c.fail
	}
	c.mu.Lock()
	c.got = append(c.got, alert)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func testAlert(symbol string, drawdown float64) AlertEvent {
	return AlertEvent{
		ID:              "alert_test",
		Symbol:          symbol,
		CurrentPrice:    80,
		RunningMax:      100,
		DrawdownPercent: drawdown,
		SecondsSinceMax: 5,
		UpdateCount:     10,
		EmittedAt:       time.Now(),
	}
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	d := NewDispatcher(16, nil, zap.NewNop())
	defer func() { _ = d.Close(context.Background()) }()

	first := &captureSink{name: "first"}
	second := &captureSink{name: "second"}
	d.RegisterSink(first)
	d.RegisterSink(second)

	for i := 0; i < 3; i++ {
		d.Dispatch(testAlert("BTC_USDT", 21))
	}

	waitFor(t, 2*time.Second, func() bool {
		return first.count() == 3 && second.count() == 3
	})

	delivered, dropped := d.Stats()
	if delivered != 3 || dropped != 0 {
		t.Errorf("expected 3 delivered / 0 dropped, got %d / %d", delivered, dropped)
	}
}

func TestDispatcherNeverBlocksWhenQueueFull(t *testing.T) {
	d := NewDispatcher(1, nil, zap.NewNop())
	defer func() { _ = d.Close(context.Background()) }()

	slow := &captureSink{name: "slow", delay: 50 * time.Millisecond}
	d.RegisterSink(slow)

	start := time.Now()
	for i := 0; i < 20; i++ {
		d.Dispatch(testAlert("ETH_USDT", 25))
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Dispatch blocked the caller for %v", elapsed)
	}

	waitFor(t, 2*time.Second, func() bool {
		_, dropped := d.Stats()
		return dropped > 0
	})
}

func TestDispatcherSinkFailureDoesNotStopOthers(t *testing.T) {
	d := NewDispatcher(16, nil, zap.NewNop())
	defer func() { _ = d.Close(context.Background()) }()

	broken := &captureSink{name: "broken", fail: errors.New("downstream unavailable")}
	healthy := &captureSink{name: "healthy"}
	d.RegisterSink(broken)
	d.RegisterSink(healthy)

	d.Dispatch(testAlert("SOL_USDT", 30))

	waitFor(t, 2*time.Second, func() bool { return healthy.count() == 1 })
	if broken.count() != 0 {
		t.Error("broken sink should have recorded nothing")
	}
}

func TestDispatcherRecentKeepsOrder(t *testing.T) {
	d := NewDispatcher(16, nil, zap.NewNop())
	defer func() { _ = d.Close(context.Background()) }()

	d.Dispatch(testAlert("AAA_USDT", 21))
	d.Dispatch(testAlert("BBB_USDT", 22))
	d.Dispatch(testAlert("CCC_USDT", 23))

	waitFor(t, 2*time.Second, func() bool {
		delivered, _ := d.Stats()
		return delivered == 3
	})

	recent := d.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent alerts, got %d", len(recent))
	}
	if recent[0].Symbol != "BBB_USDT" || recent[1].Symbol != "CCC_USDT" {
		t.Errorf("unexpected order: %s, %s", recent[0].Symbol, recent[1].Symbol)
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	d := NewDispatcher(16, nil, zap.NewNop())

	sink := &captureSink{name: "sink", delay: 5 * time.Millisecond}
	d.RegisterSink(sink)

	for i := 0; i < 5; i++ {
		d.Dispatch(testAlert("BTC_USDT", 21))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := sink.count(); got != 5 {
		t.Errorf("expected all 5 alerts drained before close returned, got %d", got)
	}

	// Closed dispatcher drops silently.
	d.Dispatch(testAlert("BTC_USDT", 21))
	_, dropped := d.Stats()
	if dropped != 1 {
		t.Errorf("expected 1 dropped after close, got %d", dropped)
	}

	if err := d.Close(ctx); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}
