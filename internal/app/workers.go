// internal/app/workers.go
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/events"
	"github.com/rovshanmuradov/dip-monitor/internal/feed"
)

// worker drains the feed channel: ticks go straight into the monitor,
// lifecycle transitions are counted, republished on the bus and logged.
// Several workers may share one channel; each event is handled exactly
// once.
func (r *Runner) worker(ctx context.Context, id int, in <-chan feed.Event) error {
	logger := r.logger.Named("worker").With(zap.Int("worker_id", id))
	logger.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Worker stopped", zap.String("reason", "context cancelled"))
			return ctx.Err()
		case ev, ok := <-in:
			if !ok {
				logger.Debug("Worker stopped", zap.String("reason", "feed channel closed"))
				return nil
			}
			r.handleFeedEvent(ev, logger)
		}
	}
}

func (r *Runner) handleFeedEvent(ev feed.Event, logger *zap.Logger) {
	switch ev.Type {
	case feed.EventTick:
		r.svc.OnTick(ev.Tick)
	case feed.EventStatus:
		r.handleFeedStatus(ev.Status, logger)
	case feed.EventError:
		logger.Warn("Feed error", zap.Error(ev.Err))
	default:
		logger.Warn("Unknown feed event", zap.Stringer("type", ev.Type))
	}
}

// handleFeedStatus republishes the transition for UI subscribers and
// keeps the reconnect counter honest. The exchange client already logs
// its own lifecycle at Info, so only a Debug trace is added here.
func (r *Runner) handleFeedStatus(status feed.Status, logger *zap.Logger) {
	if status.Kind == feed.StatusReconnecting {
		r.collector.FeedReconnect()
	}
	logger.Debug("Feed status",
		zap.String("kind", string(status.Kind)),
		zap.String("detail", status.Detail))

	_ = r.bus.Publish(events.FeedStatusEvent{
		BaseEvent: events.BaseEvent{EventType: events.FeedStatusChanged, EventTime: time.Now()},
		Kind:      string(status.Kind),
		Detail:    status.Detail,
	})
}
