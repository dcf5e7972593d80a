package repository

import (
	"context"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"
	pkgkafka "TradeForge/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka. Events are
// keyed by agent id so a hash balancer keeps per-agent order.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates Kafka publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

var _ repository.EventPublisher = (*KafkaEventPublisher)(nil)

func (p *KafkaEventPublisher) Publish(ctx context.Context, e models.MarketEvent) error {
	msg := pkgkafka.Message{
		Key:     []byte(e.Key),
		Value:   e,
		Headers: map[string]string{"event_type": e.Type},
	}
	if err := p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{msg}); err != nil {
		return models.SourceUnavailable("events.publish", err)
	}
	return nil
}

// Close is a no-op; the producer is shared with the error digest and
// closed by its owner.
func (p *KafkaEventPublisher) Close() error {
	return nil
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.MarketEvent) error { return nil }
func (NopPublisher) Close() error                                      { return nil }
