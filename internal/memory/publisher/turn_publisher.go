package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"Sarah_AI/internal/models"
)

// TurnPublisher enqueues completed conversation turns for asynchronous
// memory ingestion. The chat orchestrator calls this after every reply;
// publish failures are reported, not retried.
type TurnPublisher struct {
	client  *redis.Client
	channel string
}

func NewTurnPublisher(client *redis.Client, channel string) *TurnPublisher {
	return &TurnPublisher{client: client, channel: channel}
}

func (p *TurnPublisher) Publish(ctx context.Context, turn *models.ConversationTurn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to encode conversation turn: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish conversation turn: %w", err)
	}
	return nil
}
