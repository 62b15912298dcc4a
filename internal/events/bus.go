package events

import (
	"sync"

	"go.uber.org/zap"
)

// Handler receives a published event. Handlers run synchronously on
// the publishing goroutine, in subscription order.
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed.
// Handler funcs are not comparable in Go, so Unsubscribe takes the
// token returned by Subscribe rather than the handler itself.
type Subscription struct {
	name Name
	id   uint64
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus is the in-process event bus. A panicking handler is recovered
// and logged, and dispatch continues with the remaining handlers; this
// deliberately isolates misbehaving subscribers from the triggering
// operation instead of aborting it.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Name][]subscriber
	logger   *zap.Logger
}

// NewBus creates an event bus. A nil logger disables panic logging.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Name][]subscriber),
		logger:   logger,
	}
}

// Subscribe registers a handler for the named event and returns a
// subscription token for Unsubscribe.
func (b *Bus) Subscribe(name Name, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[name] = append(b.handlers[name], subscriber{id: b.nextID, handler: h})
	return &Subscription{name: name, id: b.nextID}
}

// Unsubscribe removes a previously registered handler. Unknown or
// already-removed subscriptions are ignored.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[sub.name]
	for i, s := range subs {
		if s.id == sub.id {
			b.handlers[sub.name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every subscriber of name, in
// subscription order, on the calling goroutine.
func (b *Bus) Publish(name Name, payload any) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.handlers[name]))
	copy(subs, b.handlers[name])
	b.mu.RUnlock()

	event := Event{Name: name, Payload: payload}
	for _, s := range subs {
		b.dispatch(s, event)
	}
}

func (b *Bus) dispatch(s subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", string(event.Name)),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(event)
}
