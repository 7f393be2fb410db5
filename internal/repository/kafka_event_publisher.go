package repository

import (
	"context"

	"NSEScan/internal/domain/models"
	pkgkafka "NSEScan/pkg/kafka"
)

// Event type header values.
const (
	EventSnapshotSaved     = "snapshot.saved"
	EventBacktestPersisted = "backtest.persisted"
)

// messagePublisher is the part of pkg/kafka.Producer the publisher needs.
type messagePublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher for Kafka. Messages are keyed
// by trade date so one day's events stay ordered on a partition.
type KafkaEventPublisher struct {
	producer      messagePublisher
	snapshotTopic string
	backtestTopic string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, snapshotTopic, backtestTopic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, snapshotTopic: snapshotTopic, backtestTopic: backtestTopic}
}

func (p *KafkaEventPublisher) PublishSnapshot(ctx context.Context, s *models.SignalSnapshot) error {
	return p.producer.PublishBatch(ctx, p.snapshotTopic, []pkgkafka.Message{{
		Key:     []byte(s.ISTDate),
		Value:   s,
		Headers: map[string]string{"event": EventSnapshotSaved, "id": s.ID},
	}})
}

func (p *KafkaEventPublisher) PublishBacktestRun(ctx context.Context, r *models.BacktestRun) error {
	return p.producer.PublishBatch(ctx, p.backtestTopic, []pkgkafka.Message{{
		Key:     []byte(r.TradeDate),
		Value:   r,
		Headers: map[string]string{"event": EventBacktestPersisted, "id": r.ID},
	}})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopEventPublisher drops events. Used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishSnapshot(context.Context, *models.SignalSnapshot) error { return nil }
func (NoopEventPublisher) PublishBacktestRun(context.Context, *models.BacktestRun) error { return nil }
func (NoopEventPublisher) Close() error                                                  { return nil }
