// internal/notify/csv_test.go
package notify

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCSVSinkAppendsRows(t *testing.T) {
	dir := t.TempDir()

	sink, err := NewCSVSink(dir, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "csv", sink.Name())
	assert.Contains(t, sink.Path(), time.Now().Format("2006-01-02"))

	require.NoError(t, sink.Deliver(context.Background(), testAlert()))

	second := testAlert()
	second.Symbol = "ETH_USDT"
	second.CurrentPrice = 2400.25
	require.NoError(t, sink.Deliver(context.Background(), second))

	require.NoError(t, sink.Close())

	data, err := os.ReadFile(sink.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Contains(t, lines[1], "BTC_USDT")
	assert.Contains(t, lines[1], "48000.5")
	assert.Contains(t, lines[1], "25.00")
	assert.Contains(t, lines[1], "2025-06-01T12:00:00Z")
	assert.Contains(t, lines[2], "ETH_USDT")
	assert.Contains(t, lines[2], "2400.25")
}

func TestCSVSinkRejectsUnwritableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err := NewCSVSink(dir+"/nested", zap.NewNop())
	assert.Error(t, err)
}
