// Package events carries list mutations between admin-svc instances over
// Kafka so each instance can drop its cached lists.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"overcooked-admin/admin-svc/internal/domain"

	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	Writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

// Publish writes ev keyed by its cache key, so events for one list stay
// ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, ev domain.MutationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode mutation event: %w", err)
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.CacheKey),
		Value: payload,
	})
}
