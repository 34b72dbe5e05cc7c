// internal/events/bus.go

// Package events fans monitor notifications (alerts, stats snapshots,
// feed and lifecycle transitions) out to in-process subscribers such
// as the dashboard bridge.
package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errBusClosed = errors.New("event bus closed")
	errQueueFull = errors.New("event queue full")
)

// entry pairs a subscriber with the id it was registered under.
type entry struct {
	id string
	h  Handler
}

// Bus routes events to subscribers by event type. Publish never blocks
// the caller: events land in a bounded queue and are dropped with a
// warning once it fills, so a stalled subscriber can slow telemetry but
// never the monitor itself.
type Bus struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[EventType][]entry

	queue    chan Event
	capacity int
	dropped  atomic.Uint64

	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

// NewBus creates a bus with the given queue capacity and starts its
// delivery loop.
func NewBus(logger *zap.Logger, capacity int) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity < 1 {
		capacity = 1
	}

	b := &Bus{
		logger:   logger.Named("event_bus"),
		subs:     make(map[EventType][]entry),
		queue:    make(chan Event, capacity),
		capacity: capacity,
		done:     make(chan struct{}),
	}

	b.wg.Add(1)
	go b.pump()

	return b
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	id := uuid.New().String()

	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], entry{id: id, h: handler})
	b.mu.Unlock()

	b.logger.Debug("Subscriber attached",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))

	return &subscription{cancel: func() { b.remove(eventType, id) }}
}

// SubscribeFunc registers a plain function as a handler.
func (b *Bus) SubscribeFunc(eventType EventType, fn func(context.Context, Event) error) Subscription {
	return b.Subscribe(eventType, HandlerFunc(fn))
}

// Publish queues an event for asynchronous delivery. Returns an error
// when the bus is closed or the queue is full; in both cases the event
// is gone, publishers treat delivery as best effort.
func (b *Bus) Publish(event Event) error {
	select {
	case <-b.done:
		return errBusClosed
	default:
	}

	select {
	case b.queue <- event:
		return nil
	default:
		n := b.dropped.Add(1)
		b.logger.Warn("Event queue full, dropping event",
			zap.String("event_type", string(event.Type())),
			zap.Uint64("dropped_total", n))
		return errQueueFull
	}
}

// PublishSync delivers an event to its subscribers on the calling
// goroutine and reports their combined errors.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	return b.deliver(ctx, event)
}

// pump moves queued events into per-event delivery goroutines until
// Shutdown, then hands off whatever is still queued.
func (b *Bus) pump() {
	defer b.wg.Done()

	for {
		select {
		case <-b.done:
			b.flush()
			return
		case ev := <-b.queue:
			b.wg.Add(1)
			go func(ev Event) {
				defer b.wg.Done()
				if err := b.deliver(context.Background(), ev); err != nil {
					b.logger.Error("Event delivery failed",
						zap.String("event_type", string(ev.Type())),
						zap.Error(err))
				}
			}(ev)
		}
	}
}

// flush delivers queued events inline so nothing accepted before
// Shutdown is lost.
func (b *Bus) flush() {
	for {
		select {
		case ev := <-b.queue:
			_ = b.deliver(context.Background(), ev)
		default:
			return
		}
	}
}

// deliver invokes every subscriber registered for the event's type,
// sequentially, against a snapshot of the registry.
func (b *Bus) deliver(ctx context.Context, event Event) error {
	b.mu.RLock()
	targets := append([]entry(nil), b.subs[event.Type()]...)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range targets {
		if err := sub.h.Handle(ctx, event); err != nil {
			b.logger.Error("Subscriber failed",
				zap.String("event_type", string(event.Type())),
				zap.String("subscription_id", sub.id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) remove(eventType EventType, id string) {
	b.mu.Lock()
	targets := b.subs[eventType]
	for i, sub := range targets {
		if sub.id == id {
			b.subs[eventType] = append(targets[:i], targets[i+1:]...)
			break
		}
	}
	if len(b.subs[eventType]) == 0 {
		delete(b.subs, eventType)
	}
	b.mu.Unlock()

	b.logger.Debug("Subscriber detached",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))
}

// Shutdown stops accepting events, delivers what is already queued and
// waits for in-flight handlers, or gives up when ctx expires.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.closed.Do(func() { close(b.done) })

	drained := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		b.logger.Info("Event bus drained")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timed out")
		return ctx.Err()
	}
}

// Stats reports queue occupancy and subscriber counts.
func (b *Bus) Stats() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	perType := make(map[string]int, len(b.subs))
	for t, targets := range b.subs {
		perType[string(t)] = len(targets)
	}

	return map[string]interface{}{
		"buffer_size":       b.capacity,
		"pending_events":    len(b.queue),
		"dropped_events":    b.dropped.Load(),
		"event_types":       len(b.subs),
		"handlers_per_type": perType,
	}
}
