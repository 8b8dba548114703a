package mercadopago

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CheckoutRequest is what the payment core hands to the gateway.
type CheckoutRequest struct {
	TaxpayerID        string
	Description       string
	Quantity          int
	UnitPrice         decimal.Decimal
	ExternalReference string
}

// CheckoutArtifact is the subset of the created preference the caller needs
// to send the buyer to the hosted checkout.
type CheckoutArtifact struct {
	ID                string `json:"id"`
	InitPoint         string `json:"init_point"`
	SandboxInitPoint  string `json:"sandbox_init_point,omitempty"`
	ExternalReference string `json:"external_reference"`
}

// Error is returned for transport failures and non-2xx responses. Payload is
// the gateway's error body when it sent one, otherwise the transport message.
type Error struct {
	StatusCode int
	Payload    json.RawMessage
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("mercadopago: transport error: %v", e.Err)
	}
	return fmt.Sprintf("mercadopago: checkout rejected with status %d: %s", e.StatusCode, string(e.Payload))
}

func (e *Error) Unwrap() error {
	return e.Err
}

type preferenceRequest struct {
	Items               []preferenceItem  `json:"items"`
	Payer               preferencePayer   `json:"payer"`
	BackURLs            *backURLs         `json:"back_urls,omitempty"`
	AutoReturn          string            `json:"auto_return,omitempty"`
	NotificationURL     string            `json:"notification_url"`
	ExternalReference   string            `json:"external_reference"`
	StatementDescriptor string            `json:"statement_descriptor,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

type preferenceItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	CurrencyID  string  `json:"currency_id"`
	UnitPrice   float64 `json:"unit_price"`
}

type preferencePayer struct {
	Identification identification `json:"identification"`
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type backURLs struct {
	Success string `json:"success,omitempty"`
	Pending string `json:"pending,omitempty"`
	Failure string `json:"failure,omitempty"`
}
