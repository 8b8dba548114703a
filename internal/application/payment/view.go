package payment

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/gateway/mercadopago"
)

// View is the public projection of a payment.
type View struct {
	ID            string          `json:"id"`
	TaxpayerID    string          `json:"cpf"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod payment.Method  `json:"paymentMethod"`
	Status        payment.Status  `json:"status"`
}

type CheckoutView struct {
	Payment  View                          `json:"payment"`
	Checkout *mercadopago.CheckoutArtifact `json:"checkout"`
}

type CheckoutFailureView struct {
	Payment View            `json:"payment"`
	Error   json.RawMessage `json:"error"`
}

func NewView(p *payment.Payment) View {
	return View{
		ID:            p.ID,
		TaxpayerID:    p.TaxpayerID,
		Description:   p.Description,
		Amount:        p.Amount,
		PaymentMethod: p.Method,
		Status:        p.Status,
	}
}

func newViews(ps []*payment.Payment) []View {
	views := make([]View, 0, len(ps))
	for _, p := range ps {
		views = append(views, NewView(p))
	}
	return views
}
