package service

import (
	"context"
	"fmt"
	"time"

	"Sarah_AI/internal/database/kafka"
	"Sarah_AI/internal/embedding"
	"Sarah_AI/internal/memory/extractor"
	"Sarah_AI/internal/memory/store"
	"Sarah_AI/internal/models"
	"Sarah_AI/pkg/logger"
)

// Pipeline outcomes reported in telemetry events.
const (
	OutcomeDone    = "done"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// MemoryService runs the ingestion side of the memory pipeline: it turns
// conversation turns into durable facts and conversation embeddings. A
// turn is processed at most once; any failure drops it without retry, the
// queue has no redelivery anyway.
type MemoryService struct {
	extractor extractor.Extractor
	facts     store.FactStore
	vectors   store.VectorStore
	embedder  embedding.Embedding
	events    *kafka.EventPublisher
	logger    *logger.Logger

	extractionTimeout time.Duration
	embeddingTimeout  time.Duration
}

// NewMemoryService creates a new MemoryService. events may be nil to
// disable telemetry.
func NewMemoryService(
	ext extractor.Extractor,
	facts store.FactStore,
	vectors store.VectorStore,
	embedder embedding.Embedding,
	events *kafka.EventPublisher,
	log *logger.Logger,
	extractionTimeout, embeddingTimeout time.Duration,
) *MemoryService {
	return &MemoryService{
		extractor:         ext,
		facts:             facts,
		vectors:           vectors,
		embedder:          embedder,
		events:            events,
		logger:            log,
		extractionTimeout: extractionTimeout,
		embeddingTimeout:  embeddingTimeout,
	}
}

// ProcessTurn ingests one conversation turn: extract facts, upsert them,
// embed the turn text, append it to the vector store.
//
// Failure handling is deliberately asymmetric. Extraction problems degrade
// to an empty extraction and the turn keeps going. A fact-store failure
// aborts the turn. An embedding failure after the facts were committed is
// a partial success: the facts stay, only the vector row is skipped.
func (s *MemoryService) ProcessTurn(ctx context.Context, turn *models.ConversationTurn) error {
	log := s.logger.WithScope(turn.UserID, turn.CharacterID)

	extractCtx, cancel := context.WithTimeout(ctx, s.extractionTimeout)
	result, err := s.extractor.Extract(extractCtx, turn)
	cancel()
	if err != nil {
		// Extractor implementations degrade internally; an error here is a
		// programming error, treat it like an empty extraction anyway.
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "extraction_error"}).
			Error("extractor returned an error")
		result = models.EmptyExtraction()
	}

	stored := 0
	for _, extracted := range result.Facts {
		fact := &models.KeyFact{
			UserID:      turn.UserID,
			CharacterID: turn.CharacterID,
			FactType:    models.FactType(extracted.Type),
			FactKey:     extracted.Key,
			FactValue:   extracted.Value,
		}
		if err := s.facts.UpsertFact(ctx, fact); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "storage_error"}).
				Error("failed to upsert extracted fact")
			s.publishEvent(turn, OutcomeFailed, len(result.Facts), stored, "", err)
			return fmt.Errorf("failed to store extracted facts: %w", err)
		}
		stored++
	}

	conversationText := fmt.Sprintf("User: %s\nAssistant: %s", turn.UserMessage, turn.AIResponse)

	embedCtx, cancel := context.WithTimeout(ctx, s.embeddingTimeout)
	vector, err := s.embedder.Embed(embedCtx, conversationText)
	cancel()
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "embedding_error"}).
			Error("failed to embed conversation turn, facts kept")
		s.publishEvent(turn, OutcomePartial, len(result.Facts), stored, "", err)
		return nil
	}

	embeddingID, err := s.vectors.AppendConversation(ctx, turn.UserID, turn.CharacterID, conversationText, vector)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "storage_error"}).
			Error("failed to append conversation embedding, facts kept")
		s.publishEvent(turn, OutcomePartial, len(result.Facts), stored, "", err)
		return nil
	}

	log.WithPayload(map[string]interface{}{
		"facts_stored": stored,
		"embedding_id": embeddingID,
		"sentiment":    result.Sentiment,
	}).Info("processed conversation turn")
	s.publishEvent(turn, OutcomeDone, len(result.Facts), stored, embeddingID, nil)
	return nil
}

// StoreFact is the explicit fact write path used by the API. Validation
// happens at the RPC boundary; this only performs the atomic upsert.
func (s *MemoryService) StoreFact(ctx context.Context, userID, characterID string, factType models.FactType, factKey, factValue string) error {
	return s.facts.UpsertFact(ctx, &models.KeyFact{
		UserID:      userID,
		CharacterID: characterID,
		FactType:    factType,
		FactKey:     factKey,
		FactValue:   factValue,
	})
}

// publishEvent ships a telemetry event; failures are logged and ignored.
func (s *MemoryService) publishEvent(turn *models.ConversationTurn, outcome string, extracted, stored int, embeddingID string, cause error) {
	event := &models.PipelineEvent{
		ServiceName:    "memory_service",
		UserID:         turn.UserID,
		CharacterID:    turn.CharacterID,
		Outcome:        outcome,
		FactsExtracted: extracted,
		FactsStored:    stored,
		EmbeddingID:    embeddingID,
		Timestamp:      time.Now().UTC().Unix(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "telemetry_error"}).
			Warn("failed to publish pipeline event")
	}
}
