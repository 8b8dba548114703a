package outbox

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(evt OutboxEvent) error {
	_, err := r.db.Exec(
		`INSERT INTO outbox_events (id, event_type, payload, created_at) VALUES (?, ?, ?, ?)`,
		evt.ID, string(evt.Type), evt.Payload, evt.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("outbox: save %s: %w", evt.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) FindUnpublished(limit int) ([]OutboxEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, event_type, payload, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("outbox: query unpublished: %w", err)
	}
	defer rows.Close()

	events := []OutboxEvent{}
	for rows.Next() {
		var (
			evt OutboxEvent
			typ string
		)
		if err := rows.Scan(&evt.ID, &typ, &evt.Payload, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("outbox: scan event: %w", err)
		}
		evt.Type = event.Type(typ)
		events = append(events, evt)
	}

	return events, rows.Err()
}

func (r *SQLiteRepository) MarkPublished(id string, at time.Time) error {
	res, err := r.db.Exec(
		`UPDATE outbox_events SET published_at = ? WHERE id = ? AND published_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("outbox: mark %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRow(`SELECT 1 FROM outbox_events WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEventNotFound
			}
			return err
		}
	}

	return nil
}
