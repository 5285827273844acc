package extractor

import (
	"context"
	"fmt"

	"Sarah_AI/internal/llm"
	"Sarah_AI/internal/models"
	"Sarah_AI/pkg/logger"
)

const extractionPromptTemplate = `Analyze this conversation and extract important information.

User: %s
Assistant: %s

Extract the following:
1. Key Facts: Important information about the user (preferences, events, relationships, personal info)
2. Entities: Named entities mentioned (people, places, things)
3. Topics: Main topics discussed
4. Sentiment: Overall emotional tone

Format your response as JSON:
{
    "facts": [
        {"type": "preference|event|relationship|personal_info|goal|habit|other", "key": "fact_name", "value": "fact_value"}
    ],
    "entities": [
        {"name": "entity_name", "type": "person|place|thing|organization"}
    ],
    "topics": ["topic1", "topic2"],
    "sentiment": "positive|negative|neutral|mixed"
}

Only extract facts that are explicitly stated or strongly implied. Be concise and accurate.`

// LlmExtractor implements Extractor with a text-completion model. The model
// call is bounded by the caller's context; a timeout, a transport error or
// unusable output all degrade to an empty extraction so a flaky model never
// wedges the ingestion pipeline.
type LlmExtractor struct {
	llm    llm.LLM
	logger *logger.Logger
}

// NewLlmExtractor creates a new LlmExtractor.
func NewLlmExtractor(llmClient llm.LLM, logger *logger.Logger) *LlmExtractor {
	return &LlmExtractor{llm: llmClient, logger: logger}
}

// Extract asks the model for a structured analysis of the turn and returns
// the validated result. The returned error is always nil; failures are
// logged and collapse to an empty extraction.
func (e *LlmExtractor) Extract(ctx context.Context, turn *models.ConversationTurn) (*models.ExtractionResult, error) {
	prompt := fmt.Sprintf(extractionPromptTemplate, turn.UserMessage, turn.AIResponse)

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		e.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "extraction_error"}).
			Error("extraction model call failed")
		return models.EmptyExtraction(), nil
	}

	parsed, err := ParseExtraction(raw)
	if err != nil {
		e.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "extraction_parse_error"}).
			Error("failed to parse extraction output")
		return models.EmptyExtraction(), nil
	}

	return ValidateExtraction(parsed), nil
}

var _ Extractor = (*LlmExtractor)(nil)
