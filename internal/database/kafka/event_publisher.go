package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"Sarah_AI/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher ships pipeline processing events to the telemetry topic.
// A nil *EventPublisher is valid and publishes nothing, so telemetry can be
// switched off without branching at every call site.
type EventPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher creates an EventPublisher on top of the shared client.
func NewEventPublisher(client *KafkaClient) *EventPublisher {
	return &EventPublisher{writer: client.Writer}
}

// Publish serializes the event and writes it keyed by user so per-user
// event order is preserved within a partition.
func (p *EventPublisher) Publish(ctx context.Context, event *models.PipelineEvent) error {
	if p == nil || p.writer == nil {
		return nil
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal pipeline event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write pipeline event to kafka: %w", err)
	}
	return nil
}
