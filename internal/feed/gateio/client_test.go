// internal/feed/gateio/client_test.go
package gateio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/feed"
)

func newTestClient() *Client {
	cfg := Config{URL: "wss://example.test/ws/v4/", Symbols: []string{"BTC_USDT", "ETH_USDT"}}
	return NewClient(cfg, feed.NewNormalizer(zap.NewNop()), zap.NewNop())
}

func drain(out chan feed.Event) []feed.Event {
	var evs []feed.Event
	for {
		select {
		case ev := <-out:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func TestHandleFrameTickerUpdate(t *testing.T) {
	c := newTestClient()
	out := make(chan feed.Event, 4)

	frame := `{"time":1717243200,"channel":"spot.tickers","event":"update","result":{"currency_pair":"btc_usdt","last":"65000.5","lowest_ask":"65001","highest_bid":"65000","base_volume":"123.4"}}`
	c.handleFrame([]byte(frame), out)

	evs := drain(out)
	require.Len(t, evs, 1)
	assert.Equal(t, feed.EventTick, evs[0].Type)
	assert.Equal(t, "BTC_USDT", evs[0].Tick.Symbol)
	assert.Equal(t, 65000.5, evs[0].Tick.Price)
	assert.False(t, evs[0].Tick.ObservedAt.IsZero())
}

func TestHandleFrameTickerWithoutPriceIsDropped(t *testing.T) {
	c := newTestClient()
	out := make(chan feed.Event, 4)

	frame := `{"time":1717243200,"channel":"spot.tickers","event":"update","result":{"currency_pair":"BTC_USDT","base_volume":"123.4"}}`
	c.handleFrame([]byte(frame), out)

	assert.Empty(t, drain(out))
}

func TestHandleFrameSubscribeAck(t *testing.T) {
	c := newTestClient()
	out := make(chan feed.Event, 4)

	c.handleFrame([]byte(`{"time":1,"channel":"spot.tickers","event":"subscribe","result":{"status":"success"}}`), out)
	c.handleFrame([]byte(`{"time":2,"channel":"spot.tickers","event":"subscribe","result":{"status":"failed"}}`), out)

	evs := drain(out)
	require.Len(t, evs, 2)
	assert.Equal(t, feed.StatusSubscribed, evs[0].Status.Kind)
	assert.Equal(t, "spot.tickers", evs[0].Status.Detail)
	assert.Equal(t, feed.StatusSubscribeFailed, evs[1].Status.Kind)
}

func TestHandleFrameServerError(t *testing.T) {
	c := newTestClient()
	out := make(chan feed.Event, 4)

	frame := `{"time":1,"channel":"spot.tickers","event":"subscribe","error":{"code":2,"message":"invalid request"}}`
	c.handleFrame([]byte(frame), out)

	evs := drain(out)
	require.Len(t, evs, 1)
	assert.Equal(t, feed.EventStatus, evs[0].Type)
	assert.Equal(t, feed.StatusSubscribeFailed, evs[0].Status.Kind)
	assert.Contains(t, evs[0].Status.Detail, "code 2")
}

func TestHandleFramePongIsSilent(t *testing.T) {
	c := newTestClient()
	out := make(chan feed.Event, 4)

	c.handleFrame([]byte(`{"time":1,"channel":"spot.pong","event":"","result":null}`), out)

	assert.Empty(t, drain(out))
}

func TestHandleFrameGarbageEmitsError(t *testing.T) {
	c := newTestClient()
	out := make(chan feed.Event, 4)

	c.handleFrame([]byte(`{not json`), out)

	evs := drain(out)
	require.Len(t, evs, 1)
	assert.Equal(t, feed.EventError, evs[0].Type)
	assert.Error(t, evs[0].Err)
}

func TestEmitNeverBlocksOnFullChannel(t *testing.T) {
	c := newTestClient()
	out := make(chan feed.Event, 1)

	frame := `{"time":1,"channel":"spot.tickers","event":"update","result":{"currency_pair":"BTC_USDT","last":"100"}}`
	for i := 0; i < 3; i++ {
		c.handleFrame([]byte(frame), out)
	}

	_, ticks, dropped := c.Stats()
	assert.Equal(t, uint64(3), ticks)
	assert.Equal(t, uint64(2), dropped)
	assert.Len(t, drain(out), 1)
}

func TestBatches(t *testing.T) {
	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}

	got := batches(symbols, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, got[0])
	assert.Equal(t, []string{"D", "E", "F"}, got[1])
	assert.Equal(t, []string{"G", "H"}, got[2])

	assert.Nil(t, batches(nil, 100))
	assert.Nil(t, batches(symbols, 0))
	assert.Len(t, batches(symbols, 100), 1)
}
