package event

type Type string

const (
	PaymentCreated Type = "PAYMENT_CREATED"
	PaymentPaid    Type = "PAYMENT_PAID"
	PaymentFailed  Type = "PAYMENT_FAILED"
)

type Event struct {
	Type    Type
	Payload any
}
