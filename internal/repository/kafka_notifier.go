package repository

import (
	"context"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	"github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	pkgkafka "github.com/Kagemann/brondby-stock-tracker/pkg/kafka"
)

// KafkaNotifier publishes fired alerts to a Kafka topic for downstream
// consumers (dashboards, audit).
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaNotifier creates a Kafka alert notifier.
func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) repository.Notifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, alerts []models.AlertCondition) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(alerts))
	for i, a := range alerts {
		msgs[i] = pkgkafka.Message{
			Key: []byte(a.DedupeKey),
			Value: map[string]interface{}{
				"id":        a.ID,
				"type":      string(a.Type),
				"value":     a.TriggeringValue,
				"threshold": a.Threshold,
				"severity":  a.Severity,
				"message":   a.Message,
				"fired_at":  a.FiredAt,
			},
		}
	}
	return n.producer.PublishBatch(ctx, n.topic, msgs)
}

func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		return n.producer.Close()
	}
	return nil
}
