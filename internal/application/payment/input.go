package payment

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/taxid"
)

type CreateInput struct {
	TaxpayerID  string
	Description string
	Amount      decimal.Decimal
	Method      string
	// Status may be empty; anything but PENDING is rejected.
	Status string
}

// UpdateInput holds the fields a caller wants to change. TaxpayerID is only
// present so that attempts to change it can be rejected.
type UpdateInput struct {
	TaxpayerID  *string
	Description *string
	Amount      *decimal.Decimal
	Method      *string
	Status      *string
}

type FilterInput struct {
	TaxpayerID string
	Method     string
}

// ValidationError maps field names to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() *ValidationError {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (in CreateInput) toPayment(id string) (*payment.Payment, *ValidationError) {
	verr := &ValidationError{}

	if !taxid.Validate(in.TaxpayerID) {
		verr.add("cpf", "invalid taxpayer id")
	}
	if strings.TrimSpace(in.Description) == "" {
		verr.add("description", "must not be empty")
	}
	if msg := checkAmount(in.Amount); msg != "" {
		verr.add("amount", msg)
	}

	method, ok := payment.ParseMethod(in.Method)
	if !ok {
		verr.add("paymentMethod", fmt.Sprintf("unknown payment method %q", in.Method))
	}

	if in.Status != "" {
		status, ok := payment.ParseStatus(in.Status)
		switch {
		case !ok:
			verr.add("status", fmt.Sprintf("unknown status %q", in.Status))
		case status != payment.StatusPending:
			verr.add("status", "payments must start as PENDING")
		}
	}

	if verr := verr.orNil(); verr != nil {
		return nil, verr
	}

	p := &payment.Payment{
		ID:          id,
		TaxpayerID:  taxid.Clean(in.TaxpayerID),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Method:      method,
		Status:      payment.StatusPending,
	}
	if method.RequiresCheckout() {
		p.ExternalReference = id
	}

	return p, nil
}

func (in UpdateInput) toPatch() (payment.Patch, *ValidationError) {
	verr := &ValidationError{}
	var patch payment.Patch

	if in.TaxpayerID != nil {
		verr.add("cpf", "taxpayer id cannot be changed")
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc == "" {
			verr.add("description", "must not be empty")
		}
		patch.Description = &desc
	}
	if in.Amount != nil {
		if msg := checkAmount(*in.Amount); msg != "" {
			verr.add("amount", msg)
		}
		amount := *in.Amount
		patch.Amount = &amount
	}
	if in.Method != nil {
		method, ok := payment.ParseMethod(*in.Method)
		if !ok {
			verr.add("paymentMethod", fmt.Sprintf("unknown payment method %q", *in.Method))
		}
		patch.Method = &method
	}
	if in.Status != nil {
		status, ok := payment.ParseStatus(*in.Status)
		if !ok {
			verr.add("status", fmt.Sprintf("unknown status %q", *in.Status))
		}
		patch.Status = &status
	}

	if verr := verr.orNil(); verr != nil {
		return payment.Patch{}, verr
	}
	if patch.Empty() {
		verr.add("body", "no fields to update")
		return payment.Patch{}, verr
	}

	return patch, nil
}

// toFilter rejects a taxpayer id that is present but invalid. Cleaning it to
// an empty string would otherwise drop the filter and match every payment.
func (in FilterInput) toFilter() (payment.Filter, *ValidationError) {
	verr := &ValidationError{}
	var filter payment.Filter

	if strings.TrimSpace(in.TaxpayerID) != "" {
		if taxid.Validate(in.TaxpayerID) {
			filter.TaxpayerID = taxid.Clean(in.TaxpayerID)
		} else {
			verr.add("cpf", "invalid taxpayer id")
		}
	}

	if in.Method != "" {
		method, ok := payment.ParseMethod(in.Method)
		if !ok {
			verr.add("method", fmt.Sprintf("unknown payment method %q", in.Method))
		}
		filter.Method = method
	}

	if verr := verr.orNil(); verr != nil {
		return payment.Filter{}, verr
	}
	return filter, nil
}

// checkAmount returns what is wrong with amount, or "" when it is a positive
// value with at most two decimal places.
func checkAmount(amount decimal.Decimal) string {
	switch {
	case !amount.IsPositive():
		return "must be greater than zero"
	case !amount.Equal(amount.Round(2)):
		return "must have at most two decimal places"
	}
	return ""
}
