package inmemory

import (
	"slices"
	"sync"
	"time"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/outbox"
)

// OutboxRepository keeps events in insertion order, which is also their
// recording order.
type OutboxRepository struct {
	mu     sync.Mutex
	events []outbox.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Save(evt outbox.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	evt.Payload = slices.Clone(evt.Payload)
	r.events = append(r.events, evt)
	return nil
}

func (r *OutboxRepository) FindUnpublished(limit int) ([]outbox.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []outbox.OutboxEvent{}
	for _, evt := range r.events {
		if len(out) >= limit {
			break
		}
		if !evt.Published() {
			evt.Payload = slices.Clone(evt.Payload)
			out = append(out, evt)
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.events {
		if r.events[i].ID != id {
			continue
		}
		if r.events[i].PublishedAt == nil {
			at := at.UTC()
			r.events[i].PublishedAt = &at
		}
		return nil
	}
	return outbox.ErrEventNotFound
}
