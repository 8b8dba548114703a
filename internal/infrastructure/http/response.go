package httpapi

import (
	"encoding/json"
	"net/http"

	paymentApplication "github.com/rcarvalho-pb/payment_checkout-go/internal/application/payment"
)

type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

type webhookAck struct {
	Received bool   `json:"received"`
	Error    string `json:"error,omitempty"`
}

func statusFor(kind paymentApplication.Kind) int {
	switch kind {
	case paymentApplication.KindCreated:
		return http.StatusCreated
	case paymentApplication.KindUpdated, paymentApplication.KindFound:
		return http.StatusOK
	case paymentApplication.KindNotFound:
		return http.StatusNotFound
	case paymentApplication.KindConflict:
		return http.StatusConflict
	case paymentApplication.KindValidationFailed:
		return http.StatusBadRequest
	case paymentApplication.KindGatewayFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *PaymentHandler) writeOutcome(w http.ResponseWriter, out paymentApplication.Outcome) {
	status := statusFor(out.Kind)
	h.writeJSON(w, status, envelope{
		StatusCode: status,
		Message:    out.Message,
		Data:       out.Data,
	})
}

// writeJSON can only log an encode failure: the status line is already out.
func (h *PaymentHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil && h.Logger != nil {
		h.Logger.Error("response not written", map[string]any{
			"status": status,
			"error":  err,
		})
	}
}
