package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*payment.Payment
	writes   int
	now      func() time.Time
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		mu:       sync.RWMutex{},
		payments: make(map[string]*payment.Payment),
		now:      time.Now,
	}
}

func (r *PaymentRepository) Create(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; exists {
		return payment.ErrDuplicate
	}

	now := r.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	stored := *p
	r.payments[p.ID] = &stored
	r.writes++
	return nil
}

func (r *PaymentRepository) Update(_ context.Context, id string, patch payment.Patch) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrNotFound
	}

	if patch.Status != nil && p.Status != payment.StatusPending {
		return nil, payment.ErrStatusConflict
	}

	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Amount != nil {
		p.Amount = *patch.Amount
	}
	if patch.Method != nil {
		p.Method = *patch.Method
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	p.UpdatedAt = r.now().UTC()
	r.writes++

	out := *p
	return &out, nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrNotFound
	}

	out := *p
	return &out, nil
}

func (r *PaymentRepository) FindMany(_ context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*payment.Payment{}
	for _, p := range r.payments {
		if filter.TaxpayerID != "" && p.TaxpayerID != filter.TaxpayerID {
			continue
		}
		if filter.Method != "" && p.Method != filter.Method {
			continue
		}
		out := *p
		result = append(result, &out)
	}

	slices.SortFunc(result, func(a, b *payment.Payment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	return result, nil
}

// Writes counts successful Create and Update calls.
func (r *PaymentRepository) Writes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.writes
}
