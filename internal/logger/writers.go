// internal/logger/writers.go
package logger

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// openAppend creates the parent directory and opens path for appending.
func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return file, nil
}

// flushDaemon drives a flush callback on an interval until stopped.
// Both writers below embed one so slow trickles of output still reach
// disk promptly.
type flushDaemon struct {
	ticker *time.Ticker
	quit   chan struct{}
	once   sync.Once
}

func startFlushDaemon(interval time.Duration, flush func() error, onErr func(error)) *flushDaemon {
	d := &flushDaemon{
		ticker: time.NewTicker(interval),
		quit:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-d.ticker.C:
				if err := flush(); err != nil {
					onErr(err)
				}
			case <-d.quit:
				return
			}
		}
	}()
	return d
}

func (d *flushDaemon) stop() {
	d.once.Do(func() {
		d.ticker.Stop()
		close(d.quit)
	})
}

// SafeFileWriter appends lines to a file through a buffer that is
// flushed on an interval. Safe for concurrent use.
type SafeFileWriter struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	file   *os.File
	daemon *flushDaemon
	logger *zap.Logger
	path   string

	lines   uint64
	flushes uint64
}

func NewSafeFileWriter(path string, flushInterval time.Duration, logger *zap.Logger) (*SafeFileWriter, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}

	w := &SafeFileWriter{
		buf:    bufio.NewWriter(file),
		file:   file,
		logger: logger,
		path:   path,
	}
	w.daemon = startFlushDaemon(flushInterval, w.Flush, func(err error) {
		logger.Error("Periodic flush failed", zap.String("file", path), zap.Error(err))
	})

	return w, nil
}

// WriteLine appends one line, newline included.
func (w *SafeFileWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.buf.WriteString(line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	w.lines++
	return nil
}

// Flush pushes buffered lines through to disk.
func (w *SafeFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	w.flushes++
	return nil
}

// Close stops the flush loop, writes out pending lines and closes the
// file.
func (w *SafeFileWriter) Close() error {
	w.daemon.stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush %s on close: %w", w.path, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}

	w.logger.Info("File writer closed",
		zap.String("file", w.path),
		zap.Uint64("lines", w.lines),
		zap.Uint64("flushes", w.flushes))
	return nil
}

// GetStats returns how many lines were written and how many flushes ran.
func (w *SafeFileWriter) GetStats() (lines, flushes uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines, w.flushes
}

// SafeCSVWriter appends records to a CSV file with the same buffering
// and interval flush as SafeFileWriter. Safe for concurrent use.
type SafeCSVWriter struct {
	mu     sync.Mutex
	csv    *csv.Writer
	file   *os.File
	daemon *flushDaemon
	logger *zap.Logger
	path   string

	records uint64
	flushes uint64
}

// NewSafeCSVWriter opens path in append mode. The header row is written
// once, only when the file starts out empty, and is not counted in the
// record stats.
func NewSafeCSVWriter(path string, flushInterval time.Duration, header []string, logger *zap.Logger) (*SafeCSVWriter, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}

	w := &SafeCSVWriter{
		csv:    csv.NewWriter(file),
		file:   file,
		logger: logger,
		path:   path,
	}

	if err := w.writeHeaderIfEmpty(header); err != nil {
		_ = file.Close()
		return nil, err
	}

	w.daemon = startFlushDaemon(flushInterval, w.Flush, func(err error) {
		logger.Error("Periodic CSV flush failed", zap.String("file", path), zap.Error(err))
	})

	return w, nil
}

// writeHeaderIfEmpty writes the header against a fresh file. Appending
// to an existing file keeps the header it already has.
func (w *SafeCSVWriter) writeHeaderIfEmpty(header []string) error {
	if len(header) == 0 {
		return nil
	}
	stat, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", w.path, err)
	}
	if stat.Size() > 0 {
		return nil
	}

	if err := w.csv.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}
	return nil
}

// WriteRecord appends one CSV record.
func (w *SafeCSVWriter) WriteRecord(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.records++
	return nil
}

// Flush pushes buffered records through to disk.
func (w *SafeCSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	w.flushes++
	return nil
}

// Close stops the flush loop, writes out pending records and closes the
// file.
func (w *SafeCSVWriter) Close() error {
	w.daemon.stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush %s on close: %w", w.path, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}

	w.logger.Info("CSV writer closed",
		zap.String("file", w.path),
		zap.Uint64("records", w.records),
		zap.Uint64("flushes", w.flushes))
	return nil
}

// GetStats returns how many records were written and how many flushes ran.
func (w *SafeCSVWriter) GetStats() (records, flushes uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records, w.flushes
}
