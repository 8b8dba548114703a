package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/metrics"
)

var ErrUnknownPayment = errors.New("webhook: unknown payment")

// StorageError means the notification could not be applied and should be
// redelivered.
type StorageError struct {
	PaymentID string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("webhook: storage failure for payment %s: %v", e.PaymentID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type Disposition string

const (
	Applied        Disposition = "APPLIED"
	AlreadySettled Disposition = "ALREADY_SETTLED"
	Ignored        Disposition = "IGNORED"
)

type Result struct {
	Payment     *payment.Payment
	Disposition Disposition
}

type Reconciler struct {
	Repo     payment.Repository
	Recorder contracts.EventRecorder
	Logger   logging.Logger
	Metrics  *metrics.Counters
}

// Reconcile applies n at most once. Repeated or late deliveries for a settled
// payment are reported as AlreadySettled without touching the store.
func (r *Reconciler) Reconcile(ctx context.Context, n Notification) (Result, error) {
	r.inc((*metrics.Counters).IncWebhook)

	fields := map[string]any{
		"payment-id":      n.ExternalID,
		"notification-id": n.NotificationID,
		"topic":           n.Topic,
		"reported":        n.ReportedStatus,
	}

	current, err := r.Repo.FindByID(ctx, n.ExternalID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			r.inc((*metrics.Counters).IncUnknown)
			r.Logger.Warn("webhook for unknown payment", fields)
			return Result{}, ErrUnknownPayment
		}
		return Result{}, r.storageError(n.ExternalID, err, fields)
	}

	if current.Settled() {
		r.inc((*metrics.Counters).IncDuplicate)
		r.Logger.Info("webhook for settled payment", fields)
		return Result{Payment: current, Disposition: AlreadySettled}, nil
	}

	target, final := targetStatus(n.ReportedStatus)
	if !final {
		r.inc((*metrics.Counters).IncIgnored)
		r.Logger.Info("webhook status is not final", fields)
		return Result{Payment: current, Disposition: Ignored}, nil
	}

	updated, err := r.Repo.Update(ctx, current.ID, payment.Patch{Status: &target})
	if err != nil {
		if errors.Is(err, payment.ErrStatusConflict) {
			return r.lostRace(ctx, current.ID, fields)
		}
		return Result{}, r.storageError(current.ID, err, fields)
	}

	if updated.Status == payment.StatusPaid {
		r.inc((*metrics.Counters).IncPaid)
	} else {
		r.inc((*metrics.Counters).IncFailed)
	}

	if evt, ok := payment.SettlementEvent(updated, n.Topic, n.ExternalID, n.NotificationID); ok && r.Recorder != nil {
		if err := r.Recorder.Record(evt); err != nil {
			fields["error"] = err
			r.Logger.Error("settlement event not recorded", fields)
		}
	}

	r.Logger.Info("payment settled", map[string]any{
		"payment-id": updated.ID,
		"status":     updated.Status,
	})

	return Result{Payment: updated, Disposition: Applied}, nil
}

// lostRace handles a guarded write that found the payment already settled by
// a concurrent delivery.
func (r *Reconciler) lostRace(ctx context.Context, id string, fields map[string]any) (Result, error) {
	settled, err := r.Repo.FindByID(ctx, id)
	if err != nil {
		return Result{}, r.storageError(id, err, fields)
	}

	r.inc((*metrics.Counters).IncDuplicate)
	r.Logger.Info("webhook lost settlement race", fields)
	return Result{Payment: settled, Disposition: AlreadySettled}, nil
}

func (r *Reconciler) storageError(id string, err error, fields map[string]any) error {
	fields["error"] = err
	r.Logger.Error("webhook storage failure", fields)
	return &StorageError{PaymentID: id, Err: err}
}

func (r *Reconciler) inc(fn func(*metrics.Counters)) {
	if r.Metrics != nil {
		fn(r.Metrics)
	}
}

func targetStatus(reported ReportedStatus) (payment.Status, bool) {
	switch reported {
	case ReportedApproved:
		return payment.StatusPaid, true
	case ReportedRejected:
		return payment.StatusFailed, true
	}
	return "", false
}
