package eventbus

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"
)

type HandlerFunc func(event.Event) error

type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerFunc
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[event.Type][]HandlerFunc),
	}
}

func (b *InMemoryBus) Subscribe(eventType event.Type, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers evt to every subscriber, even when an earlier one fails,
// and reports all failures together.
func (b *InMemoryBus) Publish(evt event.Event) error {
	b.mu.RLock()
	handlers := slices.Clone(b.handlers[evt.Type])
	b.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := handler(evt); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d: %w", evt.Type, i, err))
		}
	}

	return errors.Join(errs...)
}
