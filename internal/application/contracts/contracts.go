package contracts

import "github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"

// EventRecorder persists an event for later dispatch.
type EventRecorder interface {
	Record(event.Event) error
}
