package repository

import (
	"context"

	"SmartFlow/internal/domain/models"
	"SmartFlow/internal/domain/repository"
	pkgkafka "SmartFlow/pkg/kafka"
)

// KafkaPublisher pushes disclosure events onto the disclosures topic,
// keyed by ticker so per-ticker ordering survives partitioning.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *models.DisclosureEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Ticker), e)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []*models.DisclosureEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(e.Ticker),
			Value: e,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaSignalPublisher pushes generated signals onto the signals topic
// for downstream consumers (dashboards, paper traders).
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignals(ctx context.Context, signals []*models.TradingSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, s := range signals {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(s.Ticker),
			Value: s,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	return nil
}
