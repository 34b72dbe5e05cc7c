// internal/events/handler.go
package events

import (
	"context"
	"sync"
)

// Handler consumes events of one type. Delivery to the subscribers of
// an event is sequential, so handlers must return quickly; anything
// slow belongs behind a channel on the handler's side.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Subscription detaches its handler from the bus. Safe to call more
// than once.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}
