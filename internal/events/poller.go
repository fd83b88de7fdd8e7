package events

import (
	"context"
	"time"

	"babashop/internal/domain"
	applog "babashop/internal/log"
)

const batchSize = 100

// OutboxStore is the slice of the outbox repository the poller needs.
type OutboxStore interface {
	Unprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
}

// Poller drains the outbox table into a Publisher. Events that fail to publish
// stay unprocessed and are retried on the next tick.
type Poller struct {
	store     OutboxStore
	publisher Publisher
	interval  time.Duration
	now       func() time.Time
}

func NewPoller(store OutboxStore, pub Publisher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{store: store, publisher: pub, interval: interval, now: time.Now}
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Drain(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Drain publishes one batch and returns how many events were marked processed.
func (p *Poller) Drain(ctx context.Context) int {
	events, err := p.store.Unprocessed(ctx, batchSize)
	if err != nil {
		applog.Logger().Error().Err(err).Msg("outbox.fetch_failed")
		return 0
	}

	done := 0
	for _, e := range events {
		if err := p.publisher.Publish(ctx, e); err != nil {
			applog.Logger().Warn().Err(err).Str("event_id", e.ID).Msg("outbox.publish_failed")
			continue
		}
		if err := p.store.MarkProcessed(ctx, e.ID, p.now().UTC()); err != nil {
			applog.Logger().Error().Err(err).Str("event_id", e.ID).Msg("outbox.mark_failed")
			continue
		}
		done++
	}
	return done
}
