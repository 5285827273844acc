package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"Sarah_AI/internal/memory/service"
	"Sarah_AI/internal/models"
	"Sarah_AI/pkg/logger"
)

// TurnConsumer subscribes to the conversation turn channel and feeds each
// turn through the ingestion pipeline. Delivery is at-most-once: there is
// no ack, a dropped subscription loses the turns published while it was
// down, and a turn that fails to process is logged and discarded.
type TurnConsumer struct {
	client  *redis.Client
	memory  *service.MemoryService
	logger  *logger.Logger
	channel string
	backoff time.Duration
}

func NewTurnConsumer(client *redis.Client, memory *service.MemoryService, log *logger.Logger, channel string, backoff time.Duration) *TurnConsumer {
	return &TurnConsumer{
		client:  client,
		memory:  memory,
		logger:  log,
		channel: channel,
		backoff: backoff,
	}
}

// Start runs the consume loop until ctx is cancelled. On subscription loss
// it waits a fixed backoff and resubscribes forever.
func (c *TurnConsumer) Start(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "subscription_error"}).
				Error("turn subscription lost, resubscribing after backoff")
		}
		select {
		case <-ctx.Done():
			c.logger.Info("turn consumer stopped")
			return
		case <-time.After(c.backoff):
		}
	}
}

// consume holds one subscription until the channel closes or ctx ends.
func (c *TurnConsumer) consume(ctx context.Context) error {
	pubsub := c.client.Subscribe(ctx, c.channel)
	defer pubsub.Close()

	// Force the subscribe round trip so connection failures surface here
	// instead of as a silently empty channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	c.logger.WithPayload(map[string]interface{}{"channel": c.channel}).
		Info("subscribed to conversation turn channel")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return ctx.Err()
			}
			c.handleMessage(ctx, msg.Payload)
		}
	}
}

func (c *TurnConsumer) handleMessage(ctx context.Context, payload string) {
	var turn models.ConversationTurn
	if err := json.Unmarshal([]byte(payload), &turn); err != nil {
		c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "decode_error"}).
			Error("dropping malformed conversation turn")
		return
	}
	if turn.UserID == "" || turn.CharacterID == "" {
		c.logger.Warn("dropping conversation turn without user or character id")
		return
	}
	if err := c.memory.ProcessTurn(ctx, &turn); err != nil {
		c.logger.WithScope(turn.UserID, turn.CharacterID).
			WithError(models.ErrorInfo{Message: err.Error(), Type: "pipeline_error"}).
			Error("dropping conversation turn after processing failure")
	}
}
