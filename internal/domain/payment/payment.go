package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
)

type Method string

const (
	MethodDirectTransfer Method = "DIRECT_TRANSFER"
	MethodCard           Method = "CARD"
)

type Payment struct {
	ID                string
	TaxpayerID        string
	Description       string
	Amount            decimal.Decimal
	Method            Method
	Status            Status
	ExternalReference string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ParseStatus accepts the canonical names plus the legacy FAIL spelling.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING":
		return StatusPending, true
	case "PAID":
		return StatusPaid, true
	case "FAILED", "FAIL":
		return StatusFailed, true
	}
	return "", false
}

// ParseMethod accepts the canonical names plus PIX and CREDIT_CARD.
func ParseMethod(raw string) (Method, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DIRECT_TRANSFER", "PIX":
		return MethodDirectTransfer, true
	case "CARD", "CREDIT_CARD":
		return MethodCard, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}

// CanTransitionTo reports whether the status machine allows moving to next.
// Staying in the same status is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	return s == StatusPending && next.Terminal()
}

// RequiresCheckout reports whether settlement is delegated to the gateway.
func (m Method) RequiresCheckout() bool {
	return m == MethodCard
}

func (p *Payment) Settled() bool {
	return p.Status.Terminal()
}
