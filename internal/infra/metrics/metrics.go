package metrics

import "sync/atomic"

type Counters struct {
	PaymentsCreated   uint64
	CheckoutsFailed   uint64
	WebhooksReceived  uint64
	WebhooksDuplicate uint64
	WebhooksUnknown   uint64
	WebhooksIgnored   uint64
	PaymentsPaid      uint64
	PaymentsFailed    uint64
	EventsDispatched  uint64
}

func (c *Counters) IncCreated() {
	atomic.AddUint64(&c.PaymentsCreated, 1)
}

func (c *Counters) IncCheckoutFailed() {
	atomic.AddUint64(&c.CheckoutsFailed, 1)
}

func (c *Counters) IncWebhook() {
	atomic.AddUint64(&c.WebhooksReceived, 1)
}

func (c *Counters) IncDuplicate() {
	atomic.AddUint64(&c.WebhooksDuplicate, 1)
}

func (c *Counters) IncUnknown() {
	atomic.AddUint64(&c.WebhooksUnknown, 1)
}

func (c *Counters) IncIgnored() {
	atomic.AddUint64(&c.WebhooksIgnored, 1)
}

func (c *Counters) IncPaid() {
	atomic.AddUint64(&c.PaymentsPaid, 1)
}

func (c *Counters) IncFailed() {
	atomic.AddUint64(&c.PaymentsFailed, 1)
}

// IncDispatched counts events delivered from the outbox to the bus.
func (c *Counters) IncDispatched() {
	atomic.AddUint64(&c.EventsDispatched, 1)
}

// Snapshot returns a consistent-per-field copy safe to serialize.
func (c *Counters) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"payments_created":   atomic.LoadUint64(&c.PaymentsCreated),
		"checkouts_failed":   atomic.LoadUint64(&c.CheckoutsFailed),
		"webhooks_received":  atomic.LoadUint64(&c.WebhooksReceived),
		"webhooks_duplicate": atomic.LoadUint64(&c.WebhooksDuplicate),
		"webhooks_unknown":   atomic.LoadUint64(&c.WebhooksUnknown),
		"webhooks_ignored":   atomic.LoadUint64(&c.WebhooksIgnored),
		"payments_paid":      atomic.LoadUint64(&c.PaymentsPaid),
		"payments_failed":    atomic.LoadUint64(&c.PaymentsFailed),
		"events_dispatched":  atomic.LoadUint64(&c.EventsDispatched),
	}
}
