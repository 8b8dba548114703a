package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	paymentApplication "github.com/rcarvalho-pb/payment_checkout-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/application/webhook"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/metrics"
)

const maxBodyBytes = 1 << 20

type PaymentHandler struct {
	Service    *paymentApplication.Service
	Reconciler *webhook.Reconciler
	Metrics    *metrics.Counters
	Logger     logging.Logger
}

// CreatePaymentRequest accepts the taxpayer id as either cpf or taxpayerId.
type CreatePaymentRequest struct {
	CPF           string          `json:"cpf"`
	TaxpayerID    string          `json:"taxpayerId"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
}

type UpdatePaymentRequest struct {
	CPF           *string          `json:"cpf"`
	TaxpayerID    *string          `json:"taxpayerId"`
	Description   *string          `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod *string          `json:"paymentMethod"`
	Status        *string          `json:"status"`
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	taxpayerID := req.CPF
	if taxpayerID == "" {
		taxpayerID = req.TaxpayerID
	}

	h.writeOutcome(w, h.Service.Create(r.Context(), paymentApplication.CreateInput{
		TaxpayerID:  taxpayerID,
		Description: req.Description,
		Amount:      req.Amount,
		Method:      req.PaymentMethod,
		Status:      req.Status,
	}))
}

func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req UpdatePaymentRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	taxpayerID := req.CPF
	if taxpayerID == nil {
		taxpayerID = req.TaxpayerID
	}

	h.writeOutcome(w, h.Service.Update(r.Context(), r.PathValue("id"), paymentApplication.UpdateInput{
		TaxpayerID:  taxpayerID,
		Description: req.Description,
		Amount:      req.Amount,
		Method:      req.PaymentMethod,
		Status:      req.Status,
	}))
}

func (h *PaymentHandler) FindPayment(w http.ResponseWriter, r *http.Request) {
	h.writeOutcome(w, h.Service.FindByID(r.Context(), r.PathValue("id")))
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	h.writeOutcome(w, h.Service.FindByFilter(r.Context(), paymentApplication.FilterInput{
		TaxpayerID: query.Get("cpf"),
		Method:     query.Get("method"),
	}))
}

// MercadoPagoWebhook acknowledges every delivery it could either apply or
// safely drop. Only storage failures ask the gateway to redeliver.
func (h *PaymentHandler) MercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, webhookAck{Error: "unreadable body"})
		return
	}

	parsed := webhook.ParseNotification(body)
	if !parsed.Valid() {
		h.Logger.Warn("malformed webhook", map[string]any{"reason": parsed.Malformed.Reason})
		h.writeJSON(w, http.StatusBadRequest, webhookAck{Error: parsed.Malformed.Reason})
		return
	}

	_, err = h.Reconciler.Reconcile(r.Context(), *parsed.Notification)

	var storageErr *webhook.StorageError
	switch {
	case errors.As(err, &storageErr):
		h.writeJSON(w, http.StatusInternalServerError, webhookAck{Error: "notification not applied, retry later"})
	case err != nil && !errors.Is(err, webhook.ErrUnknownPayment):
		h.Logger.Error("webhook failed", map[string]any{"error": err})
		h.writeJSON(w, http.StatusInternalServerError, webhookAck{Error: "notification not applied, retry later"})
	default:
		h.writeJSON(w, http.StatusOK, webhookAck{Received: true})
	}
}

func (h *PaymentHandler) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Metrics.Snapshot())
}

func (h *PaymentHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{
			StatusCode: http.StatusBadRequest,
			Message:    paymentApplication.MsgInvalid,
			Data:       map[string]string{"body": "invalid request body"},
		})
		return false
	}
	return true
}
