package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
)

const paymentColumns = `id, taxpayer_id, description, amount, payment_method, status,
	external_reference, created_at, updated_at`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

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

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.TaxpayerID,
		p.Description,
		p.Amount,
		string(p.Method),
		string(p.Status),
		nullable(p.ExternalReference),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", payment.ErrDuplicate, p.ID)
	}
	return err
}

func (r *PaymentRepository) Update(ctx context.Context, id string, patch payment.Patch) (*payment.Payment, error) {
	sets := []string{"updated_at = ?"}
	args := []any{r.now().UTC()}

	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.Method != nil {
		sets = append(sets, "payment_method = ?")
		args = append(args, string(*patch.Method))
	}

	where := "id = ?"
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
		// compare-and-set: settled rows are never rewritten
		where += " AND status = '" + string(payment.StatusPending) + "'"
	}
	args = append(args, id)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET `+strings.Join(sets, ", ")+` WHERE `+where,
		args...,
	)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	current, err := findByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, payment.ErrStatusConflict
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return current, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	return findByID(ctx, r.db, id)
}

func (r *PaymentRepository) FindMany(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1 = 1`
	var args []any

	if filter.TaxpayerID != "" {
		query += ` AND taxpayer_id = ?`
		args = append(args, filter.TaxpayerID)
	}
	if filter.Method != "" {
		query += ` AND payment_method = ?`
		args = append(args, string(filter.Method))
	}
	query += ` ORDER BY created_at, id`

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

func findByID(ctx context.Context, q querier, id string) (*payment.Payment, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`,
		id,
	)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*payment.Payment, error) {
	var (
		p         payment.Payment
		method    string
		status    string
		reference sql.NullString
	)

	if err := s.Scan(
		&p.ID,
		&p.TaxpayerID,
		&p.Description,
		&p.Amount,
		&method,
		&status,
		&reference,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Method = payment.Method(method)
	p.Status = payment.Status(status)
	p.ExternalReference = reference.String
	return &p, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	// other drivers only expose the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
