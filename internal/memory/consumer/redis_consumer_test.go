package consumer

import (
	"context"
	"testing"
	"time"

	"Sarah_AI/internal/memory/service"
	"Sarah_AI/internal/memory/store"
	"Sarah_AI/internal/models"
	"Sarah_AI/pkg/logger"
)

type fixedExtractor struct {
	result *models.ExtractionResult
}

func (e fixedExtractor) Extract(ctx context.Context, turn *models.ConversationTurn) (*models.ExtractionResult, error) {
	return e.result, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (e fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = e.Embed(ctx, texts[i])
	}
	return out, nil
}

func newTestConsumer(facts store.FactStore, vectors store.VectorStore) *TurnConsumer {
	log := logger.New("consumer_test")
	ext := fixedExtractor{result: &models.ExtractionResult{
		Facts:     []models.ExtractedFact{{Type: "preference", Key: "favorite_color", Value: "teal"}},
		Sentiment: models.SentimentNeutral,
	}}
	memorySvc := service.NewMemoryService(ext, facts, vectors, fixedEmbedder{}, nil, log, time.Second, time.Second)
	return NewTurnConsumer(nil, memorySvc, log, "conversation_turns", time.Second)
}

func TestHandleMessageProcessesTurn(t *testing.T) {
	facts := store.NewInMemoryFactStore()
	vectors := store.NewInMemoryVectorStore(4, 4096)
	c := newTestConsumer(facts, vectors)

	c.handleMessage(context.Background(), `{"user_id":"u1","character_id":"c1","user_message":"hi","ai_response":"hello"}`)

	stored, _ := facts.ListFacts(context.Background(), "u1", "c1", "")
	if len(stored) != 1 {
		t.Fatalf("expected 1 fact stored, got %d", len(stored))
	}
	if n, _ := vectors.ConversationCount(context.Background(), "u1", "c1"); n != 1 {
		t.Errorf("expected 1 embedding row, got %d", n)
	}
}

func TestHandleMessageDropsMalformedPayload(t *testing.T) {
	facts := store.NewInMemoryFactStore()
	vectors := store.NewInMemoryVectorStore(4, 4096)
	c := newTestConsumer(facts, vectors)

	c.handleMessage(context.Background(), "{not json")
	c.handleMessage(context.Background(), `{"user_message":"hi","ai_response":"hello"}`)

	if n, _ := vectors.ConversationCount(context.Background(), "", ""); n != 0 {
		t.Errorf("malformed turns must be dropped, got %d rows", n)
	}
	stored, _ := facts.ListFacts(context.Background(), "", "", "")
	if len(stored) != 0 {
		t.Errorf("malformed turns must not store facts, got %d", len(stored))
	}
}
