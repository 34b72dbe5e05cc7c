// internal/logger/pretty_test.go
package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestAppendInlineFields(t *testing.T) {
	var b strings.Builder
	appendInlineFields(&b, []zapcore.Field{
		zap.String("symbol", "BTC_USDT"),
		zap.Float64("price", 0.00001234),
		zap.String("detail", "dial tcp: refused"),
		zap.Int("attempt", 3),
		zap.Time("at", time.Date(2026, 8, 21, 9, 30, 15, 250_000_000, time.UTC)),
	})

	want := ` symbol=BTC_USDT price=0.00001234 detail="dial tcp: refused" attempt=3 at=09:30:15.250`
	if got := b.String(); got != want {
		t.Errorf("Rendered %q, want %q", got, want)
	}
}

func TestInlineFieldCoreKeepsOneLinePerEntry(t *testing.T) {
	var buf bytes.Buffer
	inner := zapcore.NewCore(prettyEncoder(), zapcore.AddSync(&buf), zap.DebugLevel)
	log := zap.New(inlineFieldCore{inner: inner}).With(zap.String("channel", "spot.ticker"))

	log.Info("Tick", zap.Float64("price", 117.25))

	out := buf.String()
	if n := strings.Count(out, "\n"); n != 1 {
		t.Fatalf("Expected a single line, got %d in %q", n, out)
	}
	if !strings.Contains(out, "channel=spot.ticker") {
		t.Errorf("Context field missing from %q", out)
	}
	if !strings.Contains(out, "price=117.25") {
		t.Errorf("Call field missing from %q", out)
	}
	if strings.Contains(out, "{") {
		t.Errorf("Fields leaked to the encoder as JSON: %q", out)
	}
}
