package outbox

import (
	"errors"
	"time"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"
)

var ErrEventNotFound = errors.New("outbox: event not found")

// OutboxEvent is a recorded payment event waiting to be relayed. PublishedAt
// stays nil until every subscriber accepted it.
type OutboxEvent struct {
	ID          string
	Type        event.Type
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

func (e OutboxEvent) Published() bool {
	return e.PublishedAt != nil
}

type Repository interface {
	Save(OutboxEvent) error
	// FindUnpublished returns at most limit events, oldest first.
	FindUnpublished(limit int) ([]OutboxEvent, error)
	MarkPublished(id string, at time.Time) error
}
