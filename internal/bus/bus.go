package bus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Handler receives the payload of an emitted event.
type Handler func(payload any)

// Subscription identifies one registered handler. It is the token used for
// explicit Unsubscribe calls when the caller keeps the handle around instead
// of the closure returned by Subscribe.
type Subscription struct {
	event   string
	handler Handler
	removed atomic.Bool
}

// Bus is an in-process publish/subscribe dispatcher keyed by event-type
// string. Emission is synchronous and in registration order; a handler that
// panics is isolated from its siblings.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]*Subscription
	log      zerolog.Logger
}

// New creates an empty Bus.
func New(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]*Subscription),
		log:      log,
	}
}

// Subscribe registers handler under event and returns a function that
// removes exactly this handler. Calling the returned function more than once
// is a no-op after the first call.
func (b *Bus) Subscribe(event string, handler Handler) func() {
	sub := b.add(event, handler)
	return func() { b.remove(sub) }
}

// SubscribeToken registers handler under event and returns the subscription
// token for later Unsubscribe.
func (b *Bus) SubscribeToken(event string, handler Handler) *Subscription {
	return b.add(event, handler)
}

// Unsubscribe removes the given subscription. Safe to call repeatedly.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.remove(sub)
}

// Emit invokes every handler currently registered for event, in the order
// they subscribed. Handlers run synchronously on the caller's goroutine. A
// handler that panics is recovered and logged; remaining handlers of the
// same emission still run.
func (b *Bus) Emit(event string, payload any) {
	b.mu.Lock()
	subs := make([]*Subscription, len(b.handlers[event]))
	copy(subs, b.handlers[event])
	b.mu.Unlock()

	for _, sub := range subs {
		if sub.removed.Load() {
			continue
		}
		b.invoke(event, sub, payload)
	}
}

// Reset removes every subscription. Only correct on full teardown: once the
// session ends no surviving view should expect further events.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.handlers {
		for _, sub := range subs {
			sub.removed.Store(true)
		}
	}
	b.handlers = make(map[string][]*Subscription)
}

func (b *Bus) add(event string, handler Handler) *Subscription {
	sub := &Subscription{event: event, handler: handler}
	b.mu.Lock()
	b.handlers[event] = append(b.handlers[event], sub)
	b.mu.Unlock()
	return sub
}

func (b *Bus) remove(sub *Subscription) {
	if sub == nil || !sub.removed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[sub.event]
	for i, s := range subs {
		if s == sub {
			b.handlers[sub.event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[sub.event]) == 0 {
		delete(b.handlers, sub.event)
	}
}

func (b *Bus) invoke(event string, sub *Subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("event", event).Err(fmt.Errorf("%v", r)).Msg("event handler panicked")
		}
	}()
	sub.handler(payload)
}
