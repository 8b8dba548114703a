package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/logging"
)

func NewRouter(prefix string, handler *PaymentHandler) http.Handler {
	prefix = strings.TrimRight(prefix, "/")

	mux := http.NewServeMux()

	mux.HandleFunc("POST "+prefix+"/payments", handler.CreatePayment)
	mux.HandleFunc("GET "+prefix+"/payments", handler.ListPayments)
	mux.HandleFunc("GET "+prefix+"/payments/{id}", handler.FindPayment)
	mux.HandleFunc("PUT "+prefix+"/payments/{id}", handler.UpdatePayment)
	mux.HandleFunc("POST "+prefix+"/payments/webhooks/mercadopago", handler.MercadoPagoWebhook)
	mux.HandleFunc("GET /metrics", handler.MetricsSnapshot)

	return withRequestLog(handler.Logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func withRequestLog(logger logging.Logger, next http.Handler) http.Handler {
	if logger == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("http request", map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}
