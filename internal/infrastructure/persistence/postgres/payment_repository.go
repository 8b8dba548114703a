package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
)

const paymentColumns = `id, taxpayer_id, description, amount, payment_method, status,
	external_reference, created_at, updated_at`

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type PaymentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db, now: time.Now}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	now := r.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.TaxpayerID, p.Description, p.Amount,
		string(p.Method), string(p.Status),
		sql.NullString{String: p.ExternalReference, Valid: p.ExternalReference != ""},
		p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", payment.ErrDuplicate, p.ID)
	}
	return err
}

// Update writes the patch with a single statement. When the patch carries a
// status the row must still be PENDING, otherwise ErrStatusConflict.
func (r *PaymentRepository) Update(ctx context.Context, id string, patch payment.Patch) (*payment.Payment, error) {
	query, args := updateStatement(id, patch, r.now().UTC())

	updated, err := scanPayment(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", payment.ErrDuplicate, id)
		}
		return nil, err
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, payment.ErrStatusConflict
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payment.ErrNotFound
	}
	return p, err
}

func (r *PaymentRepository) FindMany(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	query, args := findManyStatement(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*payment.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func updateStatement(id string, patch payment.Patch, now time.Time) (string, []any) {
	args := []any{now}
	sets := []string{"updated_at = $1"}

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Amount != nil {
		set("amount", *patch.Amount)
	}
	if patch.Method != nil {
		set("payment_method", string(*patch.Method))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}

	args = append(args, id)
	where := fmt.Sprintf("id = $%d", len(args))
	if patch.Status != nil {
		args = append(args, string(payment.StatusPending))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	return `UPDATE payments SET ` + strings.Join(sets, ", ") +
		` WHERE ` + where + ` RETURNING ` + paymentColumns, args
}

func findManyStatement(filter payment.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.TaxpayerID != "" {
		args = append(args, filter.TaxpayerID)
		conds = append(conds, fmt.Sprintf("taxpayer_id = $%d", len(args)))
	}
	if filter.Method != "" {
		args = append(args, string(filter.Method))
		conds = append(conds, fmt.Sprintf("payment_method = $%d", len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	return query + ` ORDER BY created_at, id`, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*payment.Payment, error) {
	var (
		p              payment.Payment
		method, status string
		reference      sql.NullString
	)

	if err := s.Scan(&p.ID, &p.TaxpayerID, &p.Description, &p.Amount,
		&method, &status, &reference, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	p.Method = payment.Method(method)
	p.Status = payment.Status(status)
	p.ExternalReference = reference.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
