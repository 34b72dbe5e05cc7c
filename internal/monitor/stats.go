// internal/monitor/stats.go
package monitor

import (
	"fmt"
	"time"
)

// Reporter derives MonitorSnapshots from the store. Its only state is the
// session start time used for uptime.
type Reporter struct {
	startedAt time.Time
}

// NewReporter creates a reporter anchored at the session start time.
func NewReporter(startedAt time.Time) *Reporter {
	return &Reporter{startedAt: startedAt}
}

// Report summarizes the store as of now.
func (r *Reporter) Report(store *Store) MonitorSnapshot {
	return r.ReportAt(store, time.Now())
}

// ReportAt summarizes the store as of the given instant.
func (r *Reporter) ReportAt(store *Store, now time.Time) MonitorSnapshot {
	snaps := store.SnapshotAll()

	snap := MonitorSnapshot{
		TotalSymbols: len(snaps),
		Uptime:       now.Sub(r.startedAt),
		GeneratedAt:  now,
	}
	for _, ss := range snaps {
		if ss.State.Initialized {
			snap.SymbolsWithData++
		}
		if ss.State.CurrentPrice > 0 {
			snap.ActiveSymbols++
		}
	}
	return snap
}

// FormatDuration renders a duration as whole hours, minutes and seconds,
// the format used by the periodic stats block.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}
