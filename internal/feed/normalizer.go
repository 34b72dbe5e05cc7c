// internal/feed/normalizer.go
package feed

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

// priceFieldOrder is the precedence for extracting a price from
// heterogeneous ticker payloads: the first present, parsable, positive
// field wins.
var priceFieldOrder = []string{"last", "p", "close", "price", "highest_bid", "lowest_ask"}

// RawTicker is one exchange ticker payload before normalization.
type RawTicker struct {
	Instrument string
	Fields     map[string]any
	At         time.Time
}

// Normalizer converts raw exchange payloads into monitor ticks.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger.Named("normalizer")}
}

// Normalize maps a raw ticker to a monitor tick. Payloads without a
// usable instrument or price field are dropped with a debug log, never
// an error: a single malformed frame must not disturb the stream.
func (n *Normalizer) Normalize(raw RawTicker) (monitor.Tick, bool) {
	symbol := CanonicalSymbol(raw.Instrument)
	if symbol == "" {
		n.logger.Debug("Dropping ticker without instrument")
		return monitor.Tick{}, false
	}

	price, ok := extractPrice(raw.Fields)
	if !ok {
		n.logger.Debug("Dropping ticker without usable price",
			zap.String("symbol", symbol))
		return monitor.Tick{}, false
	}

	at := raw.At
	if at.IsZero() {
		at = time.Now()
	}

	return monitor.Tick{Symbol: symbol, Price: price, ObservedAt: at}, true
}

// CanonicalSymbol translates exchange-specific instrument identifiers
// into the neutral BASE_QUOTE form used across the monitor.
func CanonicalSymbol(instrument string) string {
	s := strings.TrimSpace(instrument)
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ToUpper(s)
}

func extractPrice(fields map[string]any) (float64, bool) {
	for _, name := range priceFieldOrder {
		v, ok := fields[name]
		if !ok {
			continue
		}
		price, ok := toFloat(v)
		if !ok {
			continue
		}
		if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		return price, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
