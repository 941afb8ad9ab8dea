// Package eventbus provides the in-process event bus the pipeline uses to
// announce lifecycle events to interested observers.
//
// Features:
//   - Event fan-out to multiple subscribers
//   - Middleware chain for cross-cutting concerns
//   - Handler introspection
//
// Usage:
//
//	bus := eventbus.NewInMemoryBus()
//	bus.Subscribe("StageCompleted", telemetryHandler)
//	bus.Publish(ctx, &eventbus.StageCompleted{...})
package eventbus

import (
	"context"
	"reflect"
	"sync"
)

// Message is any event carried by the bus.
type Message interface {
	// EventType returns the routing key subscribers register under.
	EventType() string
}

// HandlerFunc consumes one event. Errors are collected but never stop
// other subscribers.
type HandlerFunc func(ctx context.Context, event Message) error

// Middleware intercepts events before and after fan-out.
type Middleware interface {
	// Before may rewrite the event; returning nil aborts publication.
	Before(ctx context.Context, event Message) (Message, error)
	// After observes the outcome. err is the first subscriber error.
	After(ctx context.Context, event Message, err error)
}

// Bus is the publishing surface stages see.
type Bus interface {
	Publish(ctx context.Context, event Message) error
	Subscribe(eventType string, handler HandlerFunc) func()
}

// =============================================================================
// IN-MEMORY BUS
// =============================================================================

// InMemoryBus is a thread-safe Bus for single-process deployments.
type InMemoryBus struct {
	subscribers map[string][]*subscription
	middleware  []Middleware
	mu          sync.RWMutex
}

type subscription struct {
	handler HandlerFunc
}

// NewInMemoryBus creates an InMemoryBus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		subscribers: make(map[string][]*subscription),
	}
}

// Publish fans an event out to all subscribers of its type. Subscribers run
// concurrently; the first subscriber error is handed to middleware but does
// not fail publication.
func (b *InMemoryBus) Publish(ctx context.Context, event Message) error {
	processed, err := b.runBefore(ctx, event)
	if err != nil {
		return err
	}
	if processed == nil {
		return nil
	}

	b.mu.RLock()
	subs := append([]*subscription(nil), b.subscribers[processed.EventType()]...)
	b.mu.RUnlock()

	var wg sync.WaitGroup
	errs := make([]error, len(subs))
	for i, sub := range subs {
		wg.Add(1)
		go func(idx int, s *subscription) {
			defer wg.Done()
			errs[idx] = s.handler(ctx, processed)
		}(i, sub)
	}
	wg.Wait()

	var first error
	for _, e := range errs {
		if e != nil {
			first = e
			break
		}
	}
	b.runAfter(ctx, processed, first)
	return nil
}

// Subscribe registers a handler for an event type.
// Returns an unsubscribe function for cleanup.
func (b *InMemoryBus) Subscribe(eventType string, handler HandlerFunc) func() {
	sub := &subscription{handler: handler}

	b.mu.Lock()
	b.subscribers[eventType] = append(b.subscribers[eventType], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, s := range subs {
			if s == sub {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// AddMiddleware appends middleware. Before hooks run in registration order,
// After hooks in reverse.
func (b *InMemoryBus) AddMiddleware(mw Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middleware = append(b.middleware, mw)
}

// SubscriberCount reports how many handlers listen for an event type.
func (b *InMemoryBus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}

// RegisteredTypes lists event types with at least one subscriber.
func (b *InMemoryBus) RegisteredTypes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	types := make([]string, 0, len(b.subscribers))
	for t, subs := range b.subscribers {
		if len(subs) > 0 {
			types = append(types, t)
		}
	}
	return types
}

// Clear drops all subscribers and middleware. Useful for testing.
func (b *InMemoryBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string][]*subscription)
	b.middleware = nil
}

func (b *InMemoryBus) runBefore(ctx context.Context, event Message) (Message, error) {
	b.mu.RLock()
	mws := append([]Middleware(nil), b.middleware...)
	b.mu.RUnlock()

	current := event
	for _, mw := range mws {
		next, err := mw.Before(ctx, current)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		current = next
	}
	return current, nil
}

func (b *InMemoryBus) runAfter(ctx context.Context, event Message, err error) {
	b.mu.RLock()
	mws := append([]Middleware(nil), b.middleware...)
	b.mu.RUnlock()

	for i := len(mws) - 1; i >= 0; i-- {
		mws[i].After(ctx, event, err)
	}
}

var _ Bus = (*InMemoryBus)(nil)

// TypeOf returns the concrete type name of an event, for diagnostics.
func TypeOf(event Message) string {
	t := reflect.TypeOf(event)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
