// internal/feed/gateio/rest.go
package gateio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/feed"
)

const restTimeout = 10 * time.Second

// RESTClient fetches exchange metadata over the gate.io v4 REST API.
type RESTClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewRESTClient(baseURL string, logger *zap.Logger) *RESTClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: restTimeout},
		logger:  logger.Named("gateio_rest"),
	}
}

// ListCurrencyPairs returns every currency pair the exchange lists,
// tradable or not. Callers filter with SelectUniverse.
func (r *RESTClient) ListCurrencyPairs(ctx context.Context) ([]CurrencyPair, error) {
	url := r.baseURL + "/spot/currency_pairs"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build currency pairs request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch currency pairs: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("currency pairs request failed: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pairs []CurrencyPair
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("decode currency pairs: %w", err)
	}

	r.logger.Debug("Fetched currency pairs", zap.Int("count", len(pairs)))
	return pairs, nil
}

// SelectUniverse reduces raw listings to the canonical watchlist:
// tradable pairs only, optionally restricted to a quote currency,
// sorted and capped at maxPairs (0 means no cap).
func SelectUniverse(pairs []CurrencyPair, quoteFilter string, maxPairs int) []string {
	symbols := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.TradeStatus != "tradable" {
			continue
		}
		if quoteFilter != "" && !strings.EqualFold(p.Quote, quoteFilter) {
			continue
		}
		symbols = append(symbols, feed.CanonicalSymbol(p.ID))
	}
	sort.Strings(symbols)
	if maxPairs > 0 && len(symbols) > maxPairs {
		symbols = symbols[:maxPairs]
	}
	return symbols
}

// DefaultUniverse is the fallback watchlist used when pair discovery
// fails: high-volume USDT markets that exist on gate.io for years.
func DefaultUniverse() []string {
	return append([]string(nil), defaultUniverse...)
}

var defaultUniverse = []string{
	"BTC_USDT", "ETH_USDT", "BNB_USDT", "XRP_USDT", "SOL_USDT",
	"ADA_USDT", "DOGE_USDT", "TRX_USDT", "DOT_USDT", "AVAX_USDT",
	"LINK_USDT", "LTC_USDT", "BCH_USDT", "UNI_USDT", "ATOM_USDT",
	"XLM_USDT", "NEAR_USDT", "APT_USDT", "FIL_USDT", "ARB_USDT",
	"OP_USDT", "INJ_USDT", "SUI_USDT", "PEPE_USDT", "SHIB_USDT",
	"TON_USDT", "HBAR_USDT", "ICP_USDT", "AAVE_USDT", "ALGO_USDT",
}
