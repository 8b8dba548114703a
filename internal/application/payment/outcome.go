package payment

type Kind string

const (
	KindCreated          Kind = "CREATED"
	KindUpdated          Kind = "UPDATED"
	KindFound            Kind = "FOUND"
	KindNotFound         Kind = "NOT_FOUND"
	KindConflict         Kind = "CONFLICT"
	KindValidationFailed Kind = "VALIDATION_FAILED"
	KindGatewayFailed    Kind = "GATEWAY_FAILED"
	KindStorageFailed    Kind = "STORAGE_FAILED"
)

const (
	MsgCreated         = "payment created successfully"
	MsgCheckoutCreated = "payment created successfully on Mercado Pago"
	MsgUpdated         = "payment updated successfully"
	MsgFound           = "payment found"
	MsgNotFound        = "payment not found"
	MsgAlready         = "payment already registered"
	MsgSettled         = "payment was settled concurrently"
	MsgInvalid         = "invalid payment data"
	MsgCreateFailed    = "failed to create payment"
	MsgUpdateFailed    = "failed to update payment"
	MsgFindFailed      = "failed to find payment"
	MsgCheckoutFailed  = "failed to create payment on Mercado Pago"
)

// Outcome is the uniform result of every orchestrator operation. Expected
// situations such as a missing payment are outcomes, not errors.
type Outcome struct {
	Kind    Kind
	Message string
	Data    any
}

func (o Outcome) OK() bool {
	switch o.Kind {
	case KindCreated, KindUpdated, KindFound:
		return true
	}
	return false
}

func outcome(kind Kind, msg string, data any) Outcome {
	return Outcome{Kind: kind, Message: msg, Data: data}
}
