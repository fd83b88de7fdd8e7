package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
)

type OutboxRepo struct{ db DB }

func NewOutboxRepo(db DB) *OutboxRepo { return &OutboxRepo{db: db} }

// Insert must run in the transaction that produced the event.
func (r *OutboxRepo) Insert(ctx context.Context, e *domain.OutboxEvent) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO outbox_events(id, aggregate_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), e.ID, e.AggregateID, e.EventType, string(e.Payload), e.CreatedAt)
	return err
}

func (r *OutboxRepo) Unprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	var rows []struct {
		domain.OutboxEvent
		Body string `db:"body"`
	}
	err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(`
		SELECT id, aggregate_id, event_type, CAST(payload AS TEXT) AS body, created_at, processed_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY created_at, id
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		e := row.OutboxEvent
		e.Payload = []byte(row.Body)
		out = append(out, e)
	}
	return out, nil
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE outbox_events SET processed_at = ? WHERE id = ?
	`), at, id)
	return err
}
