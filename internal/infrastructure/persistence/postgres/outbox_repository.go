package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/outbox"
)

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Save(evt outbox.OutboxEvent) error {
	_, err := r.db.ExecContext(context.Background(),
		`INSERT INTO outbox_events (id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)`,
		evt.ID, string(evt.Type), evt.Payload, evt.CreatedAt.UTC(),
	)
	return err
}

func (r *OutboxRepository) FindUnpublished(limit int) ([]outbox.OutboxEvent, error) {
	rows, err := r.db.QueryContext(context.Background(), `
		SELECT id, event_type, payload, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []outbox.OutboxEvent{}
	for rows.Next() {
		var (
			evt outbox.OutboxEvent
			typ string
		)
		if err := rows.Scan(&evt.ID, &typ, &evt.Payload, &evt.CreatedAt); err != nil {
			return nil, err
		}
		evt.Type = event.Type(typ)
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (r *OutboxRepository) MarkPublished(id string, at time.Time) error {
	var marked bool
	err := r.db.QueryRowContext(context.Background(), `
		UPDATE outbox_events
		SET published_at = COALESCE(published_at, $2)
		WHERE id = $1
		RETURNING true`, id, at.UTC()).Scan(&marked)
	if errors.Is(err, sql.ErrNoRows) {
		return outbox.ErrEventNotFound
	}
	return err
}
