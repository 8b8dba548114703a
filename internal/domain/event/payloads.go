package event

type PaymentCreatedPayload struct {
	PaymentID string `json:"payment_id"`
	Method    string `json:"method"`
	Amount    string `json:"amount"`
}

// PaymentSettledPayload is carried by both PaymentPaid and PaymentFailed.
type PaymentSettledPayload struct {
	PaymentID      string `json:"payment_id"`
	Status         string `json:"status"`
	ExternalID     string `json:"external_id"`
	NotificationID string `json:"notification_id,omitempty"`
	Topic          string `json:"topic"`
}
