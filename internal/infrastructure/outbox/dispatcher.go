package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/logging"
)

type EventPublisher interface {
	Publish(event.Event) error
}

// Dispatcher relays recorded events to the bus. Delivery is at-least-once:
// an event is marked only after every subscriber accepted it.
type Dispatcher struct {
	Repo         Repository
	EventBus     EventPublisher
	Logger       logging.Logger
	PollInterval time.Duration
	BatchSize    int

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce()
		}
	}
}

// DispatchOnce returns how many events were published.
func (d *Dispatcher) DispatchOnce() int {
	events, err := d.Repo.FindUnpublished(d.BatchSize)
	if err != nil {
		d.logError("outbox poll failed", map[string]any{"error": err})
		return 0
	}

	published := 0
	for _, evt := range events {
		var payload map[string]any

		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			d.logError("outbox payload undecodable", map[string]any{"event-id": evt.ID, "error": err})
			continue
		}

		domainEvent := event.Event{
			Type:    evt.Type,
			Payload: payload,
		}

		if err := d.EventBus.Publish(domainEvent); err != nil {
			d.logError("outbox publish failed", map[string]any{"event-id": evt.ID, "type": evt.Type, "error": err})
			continue
		}

		if err := d.Repo.MarkPublished(evt.ID, d.now()); err != nil {
			d.logError("outbox mark failed", map[string]any{"event-id": evt.ID, "error": err})
			continue
		}
		published++
	}

	return published
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) logError(msg string, fields map[string]any) {
	if d.Logger != nil {
		d.Logger.Error(msg, fields)
	}
}
