package events

import (
	"context"

	"github.com/segmentio/kafka-go"

	"babashop/internal/domain"
	applog "babashop/internal/log"
)

type Publisher interface {
	Publish(ctx context.Context, e domain.OutboxEvent) error
	Close() error
}

// KafkaPublisher writes events to one topic keyed by aggregate id, so all
// events of an order land on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e domain.OutboxEvent) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: e.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// LogPublisher only logs events. Used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e domain.OutboxEvent) error {
	applog.Logger().Info().
		Str("event_id", e.ID).
		Str("event_type", e.EventType).
		Str("aggregate_id", e.AggregateID).
		RawJSON("payload", e.Payload).
		Msg("outbox.published")
	return nil
}

func (LogPublisher) Close() error { return nil }
