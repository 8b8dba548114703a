package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("payment not found")
	ErrDuplicate      = errors.New("payment already exists")
	ErrStatusConflict = errors.New("payment is no longer pending")
)

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Description *string
	Amount      *decimal.Decimal
	Method      *Method
	Status      *Status
}

func (p Patch) Empty() bool {
	return p.Description == nil && p.Amount == nil && p.Method == nil && p.Status == nil
}

// Filter narrows FindMany. Zero-valued fields match everything.
type Filter struct {
	TaxpayerID string
	Method     Method
}

// Repository is the persistence contract of the payment core.
//
// Update must apply a patch that sets Status only while the stored status is
// still PENDING, returning ErrStatusConflict otherwise, so that concurrent
// settlements cannot overwrite each other.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, id string, patch Patch) (*Payment, error)
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindMany(ctx context.Context, filter Filter) ([]*Payment, error)
}
