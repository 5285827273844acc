package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"Sarah_AI/internal/models"
	"Sarah_AI/pkg/logger"
)

type scriptedLLM struct {
	response string
	err      error
	prompt   string
}

func (l *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	l.prompt = prompt
	return l.response, l.err
}

func TestExtractHappyPath(t *testing.T) {
	llmClient := &scriptedLLM{response: "Here you go:\n" +
		`{"facts": [{"type": "preference", "key": "favorite_color", "value": "teal"}],` +
		` "entities": [{"name": "Sarah", "type": "person"}], "topics": ["colors"], "sentiment": "positive"}`}
	ext := NewLlmExtractor(llmClient, logger.New("extractor_test"))

	turn := &models.ConversationTurn{
		UserID: "u1", CharacterID: "c1",
		UserMessage: "My favorite color is teal",
		AIResponse:  "Noted!",
	}
	result, err := ext.Extract(context.Background(), turn)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Facts) != 1 || result.Facts[0].Value != "teal" {
		t.Fatalf("unexpected facts: %+v", result.Facts)
	}
	if result.Sentiment != models.SentimentPositive {
		t.Errorf("expected positive sentiment, got %q", result.Sentiment)
	}
	if !strings.Contains(llmClient.prompt, "My favorite color is teal") {
		t.Error("prompt must contain the user message")
	}
	if !strings.Contains(llmClient.prompt, "Noted!") {
		t.Error("prompt must contain the AI response")
	}
}

func TestExtractModelFailureDegradesToEmpty(t *testing.T) {
	llmClient := &scriptedLLM{err: errors.New("model unreachable")}
	ext := NewLlmExtractor(llmClient, logger.New("extractor_test"))

	result, err := ext.Extract(context.Background(), &models.ConversationTurn{UserID: "u1", CharacterID: "c1"})
	if err != nil {
		t.Fatalf("a model failure must not fail the turn, got: %v", err)
	}
	if len(result.Facts) != 0 {
		t.Errorf("expected no facts, got %d", len(result.Facts))
	}
	if result.Sentiment != models.SentimentNeutral {
		t.Errorf("expected neutral sentiment, got %q", result.Sentiment)
	}
}

func TestExtractUnparseableOutputDegradesToEmpty(t *testing.T) {
	llmClient := &scriptedLLM{response: "I could not find anything interesting."}
	ext := NewLlmExtractor(llmClient, logger.New("extractor_test"))

	result, err := ext.Extract(context.Background(), &models.ConversationTurn{UserID: "u1", CharacterID: "c1"})
	if err != nil {
		t.Fatalf("unparseable output must not fail the turn, got: %v", err)
	}
	if len(result.Facts) != 0 || len(result.Topics) != 0 {
		t.Errorf("expected empty extraction, got %+v", result)
	}
}

func TestExtractValidatesFacts(t *testing.T) {
	llmClient := &scriptedLLM{response: `{"facts": [` +
		`{"type": "preference", "key": "drink", "value": "coffee"},` +
		`{"type": "preference", "key": "", "value": "dropped"}],` +
		` "entities": [], "topics": [], "sentiment": "shouting"}`}
	ext := NewLlmExtractor(llmClient, logger.New("extractor_test"))

	result, err := ext.Extract(context.Background(), &models.ConversationTurn{UserID: "u1", CharacterID: "c1"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Facts) != 1 || result.Facts[0].Key != "drink" {
		t.Fatalf("expected only the complete fact to survive, got %+v", result.Facts)
	}
	if result.Sentiment != models.SentimentNeutral {
		t.Errorf("expected unknown sentiment normalized to neutral, got %q", result.Sentiment)
	}
}
