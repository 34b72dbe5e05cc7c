// internal/feed/gateio/rest_test.go
package gateio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const pairsBody = `[
	{"id":"BTC_USDT","base":"BTC","quote":"USDT","fee":"0.2","trade_status":"tradable"},
	{"id":"ETH_USDT","base":"ETH","quote":"USDT","fee":"0.2","trade_status":"tradable"},
	{"id":"OLD_USDT","base":"OLD","quote":"USDT","fee":"0.2","trade_status":"untradable"},
	{"id":"ETH_BTC","base":"ETH","quote":"BTC","fee":"0.2","trade_status":"tradable"}
]`

func TestListCurrencyPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/spot/currency_pairs", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pairsBody))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL+"/api/v4/", zap.NewNop())
	pairs, err := client.ListCurrencyPairs(context.Background())

	require.NoError(t, err)
	require.Len(t, pairs, 4)
	assert.Equal(t, "BTC_USDT", pairs[0].ID)
	assert.Equal(t, "tradable", pairs[0].TradeStatus)
}

func TestListCurrencyPairsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, zap.NewNop())
	_, err := client.ListCurrencyPairs(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestSelectUniverse(t *testing.T) {
	pairs := []CurrencyPair{
		{ID: "ETH_USDT", Quote: "USDT", TradeStatus: "tradable"},
		{ID: "BTC_USDT", Quote: "USDT", TradeStatus: "tradable"},
		{ID: "OLD_USDT", Quote: "USDT", TradeStatus: "untradable"},
		{ID: "ETH_BTC", Quote: "BTC", TradeStatus: "tradable"},
	}

	assert.Equal(t, []string{"BTC_USDT", "ETH_USDT"}, SelectUniverse(pairs, "USDT", 0))
	assert.Equal(t, []string{"BTC_USDT"}, SelectUniverse(pairs, "USDT", 1))
	assert.Equal(t, []string{"BTC_USDT", "ETH_BTC", "ETH_USDT"}, SelectUniverse(pairs, "", 0))
	assert.Empty(t, SelectUniverse(nil, "USDT", 0))
}

func TestDefaultUniverseIsIsolatedCopy(t *testing.T) {
	first := DefaultUniverse()
	require.NotEmpty(t, first)
	assert.Contains(t, first, "BTC_USDT")

	first[0] = "MUTATED"
	assert.Equal(t, "BTC_USDT", DefaultUniverse()[0])
}
