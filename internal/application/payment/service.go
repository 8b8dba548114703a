// Package payment orchestrates payment creation, updates and queries, and
// hands card payments off to the checkout gateway.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/gateway/mercadopago"
)

type Gateway interface {
	Checkout(ctx context.Context, in mercadopago.CheckoutRequest) (*mercadopago.CheckoutArtifact, error)
}

// Service owns the payment use cases. When the gateway call fails after the
// PENDING row was written, the row is kept: it stays reconcilable and the
// caller is told the checkout hand-off failed.
type Service struct {
	Repo     payment.Repository
	Gateway  Gateway
	Recorder contracts.EventRecorder
	Logger   logging.Logger
	Metrics  *metrics.Counters

	// NewID defaults to random UUIDs.
	NewID func() string
}

func (s *Service) Create(ctx context.Context, in CreateInput) Outcome {
	p, verr := in.toPayment(s.newID())
	if verr != nil {
		return outcome(KindValidationFailed, MsgInvalid, verr.Fields)
	}

	if err := s.Repo.Create(ctx, p); err != nil {
		if errors.Is(err, payment.ErrDuplicate) {
			return outcome(KindConflict, MsgAlready, nil)
		}
		s.Logger.Error("payment create failed", map[string]any{
			"payment-id": p.ID,
			"error":      err,
		})
		return outcome(KindStorageFailed, MsgCreateFailed, nil)
	}

	s.incCreated()
	s.record(event.Event{
		Type: event.PaymentCreated,
		Payload: event.PaymentCreatedPayload{
			PaymentID: p.ID,
			Method:    string(p.Method),
			Amount:    p.Amount.String(),
		},
	})

	s.Logger.Info("payment created", map[string]any{
		"payment-id": p.ID,
		"method":     p.Method,
	})

	if !p.Method.RequiresCheckout() {
		return outcome(KindCreated, MsgCreated, NewView(p))
	}

	artifact, err := s.Gateway.Checkout(ctx, mercadopago.CheckoutRequest{
		TaxpayerID:        p.TaxpayerID,
		Description:       p.Description,
		Quantity:          1,
		UnitPrice:         p.Amount,
		ExternalReference: p.ExternalReference,
	})
	if err != nil {
		s.incCheckoutFailed()
		s.Logger.Error("checkout failed, payment kept as pending", map[string]any{
			"payment-id": p.ID,
			"error":      err,
		})
		return outcome(KindGatewayFailed, MsgCheckoutFailed, CheckoutFailureView{
			Payment: NewView(p),
			Error:   gatewayPayload(err),
		})
	}

	s.Logger.Info("checkout created", map[string]any{
		"payment-id":  p.ID,
		"checkout-id": artifact.ID,
	})

	return outcome(KindCreated, MsgCheckoutCreated, CheckoutView{
		Payment:  NewView(p),
		Checkout: artifact,
	})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) Outcome {
	patch, verr := in.toPatch()
	if verr != nil {
		return outcome(KindValidationFailed, MsgInvalid, verr.Fields)
	}

	current, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return s.updateFailure(id, err)
	}

	if fields := checkPatch(current, &patch); fields != nil {
		return outcome(KindValidationFailed, MsgInvalid, fields)
	}
	if patch.Empty() {
		return outcome(KindUpdated, MsgUpdated, NewView(current))
	}

	updated, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return s.updateFailure(id, err)
	}

	if patch.Status != nil {
		s.recordSettlement(updated, "manual", "", "")
	}

	return outcome(KindUpdated, MsgUpdated, NewView(updated))
}

// checkPatch validates patch against the stored payment and drops a status
// that is already current. Settled payments keep their amount and method. A
// method change may not move a payment in or out of gateway checkout, and a
// card payment keeps the amount its checkout was issued for.
func checkPatch(current *payment.Payment, patch *payment.Patch) map[string]string {
	fields := map[string]string{}

	if patch.Status != nil {
		if current.Status == *patch.Status {
			patch.Status = nil
		} else if !current.Status.CanTransitionTo(*patch.Status) {
			fields["status"] = "cannot move from " + string(current.Status) + " to " + string(*patch.Status)
		}
	}

	if patch.Method != nil && *patch.Method != current.Method {
		switch {
		case current.Settled():
			fields["paymentMethod"] = "payment is already settled"
		case patch.Method.RequiresCheckout() != current.Method.RequiresCheckout():
			fields["paymentMethod"] = "cannot change between " + string(current.Method) + " and " + string(*patch.Method)
		}
	}

	if patch.Amount != nil && !patch.Amount.Equal(current.Amount) {
		switch {
		case current.Settled():
			fields["amount"] = "payment is already settled"
		case current.Method.RequiresCheckout():
			fields["amount"] = "checkout was already issued for this amount"
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (s *Service) FindByID(ctx context.Context, id string) Outcome {
	p, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return outcome(KindNotFound, MsgNotFound, nil)
		}
		s.Logger.Error("payment lookup failed", map[string]any{
			"payment-id": id,
			"error":      err,
		})
		return outcome(KindStorageFailed, MsgFindFailed, nil)
	}

	return outcome(KindFound, MsgFound, NewView(p))
}

// FindByFilter treats an empty result as NotFound carrying an empty list.
func (s *Service) FindByFilter(ctx context.Context, in FilterInput) Outcome {
	filter, verr := in.toFilter()
	if verr != nil {
		return outcome(KindValidationFailed, MsgInvalid, verr.Fields)
	}

	payments, err := s.Repo.FindMany(ctx, filter)
	if err != nil {
		s.Logger.Error("payment query failed", map[string]any{
			"cpf":    filter.TaxpayerID,
			"method": filter.Method,
			"error":  err,
		})
		return outcome(KindStorageFailed, MsgFindFailed, nil)
	}

	if len(payments) == 0 {
		return outcome(KindNotFound, MsgNotFound, []View{})
	}
	return outcome(KindFound, MsgFound, newViews(payments))
}

func (s *Service) updateFailure(id string, err error) Outcome {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		return outcome(KindNotFound, MsgNotFound, nil)
	case errors.Is(err, payment.ErrStatusConflict):
		return outcome(KindConflict, MsgSettled, nil)
	case errors.Is(err, payment.ErrDuplicate):
		return outcome(KindConflict, MsgAlready, nil)
	}

	s.Logger.Error("payment update failed", map[string]any{
		"payment-id": id,
		"error":      err,
	})
	return outcome(KindStorageFailed, MsgUpdateFailed, nil)
}

func (s *Service) recordSettlement(p *payment.Payment, topic, externalID, notificationID string) {
	if evt, ok := payment.SettlementEvent(p, topic, externalID, notificationID); ok {
		s.record(evt)
	}
}

func (s *Service) record(evt event.Event) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.Record(evt); err != nil {
		s.Logger.Error("event not recorded", map[string]any{
			"type":  evt.Type,
			"error": err,
		})
	}
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) incCreated() {
	if s.Metrics != nil {
		s.Metrics.IncCreated()
	}
}

func (s *Service) incCheckoutFailed() {
	if s.Metrics != nil {
		s.Metrics.IncCheckoutFailed()
	}
}

func gatewayPayload(err error) json.RawMessage {
	var gwErr *mercadopago.Error
	if errors.As(err, &gwErr) && len(gwErr.Payload) > 0 {
		return gwErr.Payload
	}
	return json.RawMessage(strconv.Quote(err.Error()))
}
