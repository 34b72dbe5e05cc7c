// internal/logger/writers_test.go
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSafeFileWriterConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.log")

	writer, err := NewSafeFileWriter(path, 50*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create file writer: %v", err)
	}

	const writers = 10
	const linesEach = 100

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < linesEach; j++ {
				line := fmt.Sprintf("BTC_USDT %d.%d 65000.5", id, j)
				if err := writer.WriteLine(line); err != nil {
					t.Errorf("WriteLine failed: %v", err)
				}
				// Half the writers also race Flush against WriteLine.
				if id%2 == 0 && j%25 == 0 {
					if err := writer.Flush(); err != nil {
						t.Errorf("Flush failed: %v", err)
					}
				}
			}
		}(i)
	}
	wg.Wait()

	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines, flushes := writer.GetStats()
	t.Logf("Lines: %d, Flushes: %d", lines, flushes)
	if lines != writers*linesEach {
		t.Errorf("Expected %d lines, got %d", writers*linesEach, lines)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != writers*linesEach {
		t.Errorf("Expected %d lines on disk, got %d", writers*linesEach, got)
	}
}

func TestSafeCSVWriterConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.csv")
	header := []string{"emitted_at", "symbol", "current_price", "running_max", "drawdown_percent"}

	writer, err := NewSafeCSVWriter(path, 50*time.Millisecond, header, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create CSV writer: %v", err)
	}

	const writers = 5
	const recordsEach = 50

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < recordsEach; j++ {
				record := []string{
					time.Now().Format(time.RFC3339),
					fmt.Sprintf("PAIR%d_USDT", id),
					fmt.Sprintf("%d.5", j),
					"100.0",
					"21.5",
				}
				if err := writer.WriteRecord(record); err != nil {
					t.Errorf("WriteRecord failed: %v", err)
				}
				if j%10 == 0 {
					if err := writer.Flush(); err != nil {
						t.Errorf("Flush failed: %v", err)
					}
				}
			}
		}(i)
	}
	wg.Wait()

	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, flushes := writer.GetStats()
	t.Logf("Records: %d, Flushes: %d", records, flushes)
	if records != writers*recordsEach {
		t.Errorf("Expected %d records (excluding header), got %d", writers*recordsEach, records)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	// Header plus one line per record.
	if got := strings.Count(string(data), "\n"); got != 1+writers*recordsEach {
		t.Errorf("Expected %d lines on disk, got %d", 1+writers*recordsEach, got)
	}
}

func TestSafeCSVWriterHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.csv")
	header := []string{"emitted_at", "symbol"}

	first, err := NewSafeCSVWriter(path, time.Second, header, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := first.WriteRecord([]string{"2025-06-01T12:00:00Z", "BTC_USDT"}); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	// Reopening an existing file must not duplicate the header.
	second, err := NewSafeCSVWriter(path, time.Second, header, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to reopen writer: %v", err)
	}
	if err := second.WriteRecord([]string{"2025-06-01T12:05:00Z", "ETH_USDT"}); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	content := string(data)
	if got := strings.Count(content, "emitted_at,symbol"); got != 1 {
		t.Errorf("Expected exactly one header, got %d in:\n%s", got, content)
	}
	if !strings.Contains(content, "BTC_USDT") || !strings.Contains(content, "ETH_USDT") {
		t.Errorf("Expected both records, got:\n%s", content)
	}
}

func TestSafeFileWriterPeriodicFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.log")

	writer, err := NewSafeFileWriter(path, 10*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create file writer: %v", err)
	}
	defer writer.Close()

	for i := 0; i < 10; i++ {
		if err := writer.WriteLine(fmt.Sprintf("tick %d", i)); err != nil {
			t.Errorf("WriteLine failed: %v", err)
		}
		time.Sleep(15 * time.Millisecond)
	}

	lines, flushes := writer.GetStats()
	t.Logf("Lines: %d, Flushes: %d", lines, flushes)

	if flushes < 2 {
		t.Error("Expected multiple periodic flushes")
	}
}
