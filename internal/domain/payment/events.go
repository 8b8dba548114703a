package payment

import "github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"

// SettlementEvent builds the event announcing that p reached a terminal
// status. ok is false while p is still pending.
func SettlementEvent(p *Payment, topic, externalID, notificationID string) (evt event.Event, ok bool) {
	var typ event.Type
	switch p.Status {
	case StatusPaid:
		typ = event.PaymentPaid
	case StatusFailed:
		typ = event.PaymentFailed
	default:
		return event.Event{}, false
	}

	return event.Event{
		Type: typ,
		Payload: event.PaymentSettledPayload{
			PaymentID:      p.ID,
			Status:         string(p.Status),
			ExternalID:     externalID,
			NotificationID: notificationID,
			Topic:          topic,
		},
	}, true
}
