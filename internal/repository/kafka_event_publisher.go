package repository

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	pkgkafka "FinCast/pkg/kafka"
	"FinCast/pkg/tracing"
)

// Topics names the event topics.
type Topics struct {
	Datasets  string
	Forecasts string
}

// KafkaEventPublisher implements EventPublisher and the log collector
// Publisher on top of one producer. Events are keyed by symbol so each
// symbol's events stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topics   Topics
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topics Topics) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topics: topics}
}

func (p *KafkaEventPublisher) PublishDataset(ctx context.Context, evt models.DatasetEvent) error {
	if err := p.send(ctx, p.topics.Datasets, evt.Symbol, evt); err != nil {
		return fmt.Errorf("publish dataset event: %w", err)
	}
	return nil
}

func (p *KafkaEventPublisher) PublishForecast(ctx context.Context, evt models.ForecastEvent) error {
	if err := p.send(ctx, p.topics.Forecasts, evt.Symbol, evt); err != nil {
		return fmt.Errorf("publish forecast event: %w", err)
	}
	return nil
}

// PublishMessage sends an arbitrary JSON payload, unkeyed.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaEventPublisher) send(ctx context.Context, topic, key string, value interface{}) error {
	msg := pkgkafka.Message{Key: []byte(key), Value: value}
	if id, _, ok := tracing.TraceFields(ctx); ok {
		msg.Headers = []kafka.Header{{Key: "trace_id", Value: []byte(id)}}
	}
	return p.producer.PublishBatch(ctx, topic, []pkgkafka.Message{msg})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
