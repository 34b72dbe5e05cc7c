// internal/notify/csv.go
package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/logger"
	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

const csvFlushInterval = 30 * time.Second

var csvHeader = []string{
	"emitted_at", "symbol", "current_price", "running_max",
	"drawdown_percent", "seconds_since_max", "update_count",
}

// CSVSink appends one row per alert to a per-day CSV file under dir.
type CSVSink struct {
	writer *logger.SafeCSVWriter
	path   string
}

var _ monitor.Sink = (*CSVSink)(nil)

func NewCSVSink(dir string, log *zap.Logger) (*CSVSink, error) {
	if log == nil {
		log = zap.NewNop()
	}

	path := filepath.Join(dir, fmt.Sprintf("alerts_%s.csv", time.Now().Format("2006-01-02")))
	writer, err := logger.NewSafeCSVWriter(path, csvFlushInterval, csvHeader, log)
	if err != nil {
		return nil, fmt.Errorf("create alert csv: %w", err)
	}

	return &CSVSink{writer: writer, path: path}, nil
}

func (s *CSVSink) Name() string { return "csv" }

// Path returns the file alerts are appended to.
func (s *CSVSink) Path() string { return s.path }

func (s *CSVSink) Deliver(ctx context.Context, alert monitor.AlertEvent) error {
	record := []string{
		alert.EmittedAt.UTC().Format(time.RFC3339),
		alert.Symbol,
		strconv.FormatFloat(alert.CurrentPrice, 'f', -1, 64),
		strconv.FormatFloat(alert.RunningMax, 'f', -1, 64),
		strconv.FormatFloat(alert.DrawdownPercent, 'f', 2, 64),
		strconv.FormatInt(alert.SecondsSinceMax, 10),
		strconv.FormatUint(alert.UpdateCount, 10),
	}
	return s.writer.WriteRecord(record)
}

// Close flushes pending rows and releases the file.
func (s *CSVSink) Close() error {
	return s.writer.Close()
}
