// internal/logger/buffer.go
package logger

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// LogEntry is one parsed log line held by the buffer.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
	Fields    map[string]interface{}
}

// LogBuffer is a thread-safe ring of recent log entries. It implements
// io.Writer so it can back a zapcore sink: each Write carries one
// JSON-encoded log line. When the ring is full the oldest entry is
// overwritten.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	start   int
	count   int

	totalEntries uint64
}

const defaultBufferCapacity = 256

// NewLogBuffer creates a buffer holding up to capacity entries.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	return &LogBuffer{entries: make([]LogEntry, capacity)}
}

// Write decodes one JSON log line into the ring. Lines that do not
// parse are kept verbatim so nothing a core emits is lost.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(p, &raw); err != nil {
		lb.Add("error", strings.TrimSpace(string(p)), nil)
		return len(p), nil
	}

	entry := LogEntry{Timestamp: time.Now()}
	if ts, ok := raw["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.Timestamp = parsed
		}
		delete(raw, "time")
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = level
		delete(raw, "level")
	}
	if msg, ok := raw["msg"].(string); ok {
		entry.Message = msg
		delete(raw, "msg")
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}

	lb.append(entry)
	return len(p), nil
}

// Add records an entry directly, bypassing JSON decoding.
func (lb *LogBuffer) Add(level, message string, fields map[string]interface{}) {
	lb.append(LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    fields,
	})
}

func (lb *LogBuffer) append(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.count == len(lb.entries) {
		lb.entries[lb.start] = entry
		lb.start = (lb.start + 1) % len(lb.entries)
	} else {
		lb.entries[(lb.start+lb.count)%len(lb.entries)] = entry
		lb.count++
	}
	lb.totalEntries++
}

// Recent returns up to limit of the newest entries, oldest first.
// limit <= 0 returns everything buffered.
func (lb *LogBuffer) Recent(limit int) []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	skip := 0
	if limit > 0 && limit < lb.count {
		skip = lb.count - limit
	}

	out := make([]LogEntry, 0, lb.count-skip)
	for i := skip; i < lb.count; i++ {
		out = append(out, lb.entries[(lb.start+i)%len(lb.entries)])
	}
	return out
}

// Len reports how many entries the ring currently holds.
func (lb *LogBuffer) Len() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.count
}

// Total reports how many entries passed through the buffer, including
// ones already overwritten.
func (lb *LogBuffer) Total() uint64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.totalEntries
}
