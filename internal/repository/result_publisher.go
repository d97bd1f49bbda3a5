package repository

import (
	"context"

	"VolPosture/internal/domain/models"
	"VolPosture/internal/domain/repository"
	pkgkafka "VolPosture/pkg/kafka"
)

// KafkaResultPublisher ships finished results to the posture topic,
// keyed by symbol so one symbol's results stay ordered per partition.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) repository.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) Publish(ctx context.Context, r *models.Result) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r)
}

func (p *KafkaResultPublisher) PublishBatch(ctx context.Context, rs []*models.Result) error {
	if len(rs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rs))
	for i, r := range rs {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Symbol), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
