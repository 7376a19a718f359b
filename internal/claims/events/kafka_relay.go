package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"claimtriage/internal/claims/models"
)

// Producer is the slice of *kgo.Client the relay needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaRelay republishes ClaimTransitioned to a Kafka topic keyed by claim id,
// so partitions keep one claim's events together.
type KafkaRelay struct {
	producer Producer
	topic    string
}

func NewKafkaRelay(producer Producer, topic string) *KafkaRelay {
	return &KafkaRelay{producer: producer, topic: topic}
}

func (r *KafkaRelay) Name() string { return "kafka_relay" }

func (r *KafkaRelay) HandleClaimTransitioned(ctx context.Context, event models.ClaimTransitioned) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal claim event: %w", err)
	}
	record := &kgo.Record{
		Topic: r.topic,
		Key:   []byte(event.ClaimID.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte("claim.transitioned")},
			{Key: "to_status", Value: []byte(event.ToStatus)},
		},
		Timestamp: event.OccurredAt,
	}
	if err := r.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce claim event: %w", err)
	}
	return nil
}
