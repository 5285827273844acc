package service

import (
	"context"
	"strings"
	"sync"

	"Sarah_AI/internal/embedding"
	"Sarah_AI/internal/memory/store"
	"Sarah_AI/internal/models"
	"Sarah_AI/pkg/logger"
)

const (
	defaultMaxFacts    = 10
	defaultMaxSnippets = 5
	defaultSearchLimit = 10
)

// RetrievalService answers context queries against both memory backends.
// Fact search and semantic search run concurrently and degrade to empty
// results independently; a retrieval request never fails outright.
type RetrievalService struct {
	facts    store.FactStore
	vectors  store.VectorStore
	embedder embedding.Embedding
	logger   *logger.Logger
}

func NewRetrievalService(facts store.FactStore, vectors store.VectorStore, embedder embedding.Embedding, log *logger.Logger) *RetrievalService {
	return &RetrievalService{facts: facts, vectors: vectors, embedder: embedder, logger: log}
}

// RetrieveContext gathers facts and conversation snippets relevant to the
// current message and renders them into a single prompt-ready string.
func (s *RetrievalService) RetrieveContext(ctx context.Context, req *models.RetrievalRequest) *models.RetrievalResponse {
	log := s.logger.WithScope(req.UserID, req.CharacterID)

	maxFacts := defaultMaxFacts
	if req.MaxFacts != nil {
		maxFacts = *req.MaxFacts
	}
	maxSnippets := defaultMaxSnippets
	if req.MaxSnippets != nil {
		maxSnippets = *req.MaxSnippets
	}

	keywords := strings.Fields(strings.ToLower(req.Message))

	var (
		wg    sync.WaitGroup
		facts []models.KeyFact
		hits  []models.ConversationHit
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		found, err := s.facts.SearchFacts(ctx, req.UserID, req.CharacterID, keywords, maxFacts)
		if err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "storage_error"}).
				Error("fact search failed, continuing without facts")
			return
		}
		facts = found
	}()
	go func() {
		defer wg.Done()
		vector, err := s.embedder.Embed(ctx, req.Message)
		if err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "embedding_error"}).
				Error("query embedding failed, continuing without snippets")
			return
		}
		found, err := s.vectors.SearchConversations(ctx, req.UserID, req.CharacterID, vector, maxSnippets)
		if err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "storage_error"}).
				Error("conversation search failed, continuing without snippets")
			return
		}
		hits = found
	}()
	wg.Wait()

	resp := &models.RetrievalResponse{
		RelevantFacts:        make([]models.FactView, 0, len(facts)),
		ConversationSnippets: make([]string, 0, len(hits)),
	}
	for i := range facts {
		resp.RelevantFacts = append(resp.RelevantFacts, facts[i].View())
	}
	for i := range hits {
		resp.ConversationSnippets = append(resp.ConversationSnippets, hits[i].Text)
	}
	resp.Context = formatContext(resp.RelevantFacts, resp.ConversationSnippets)
	return resp
}

// formatContext renders retrieved memories into the prompt block consumed
// by the persona engine. Empty inputs render to an empty string.
func formatContext(facts []models.FactView, snippets []string) string {
	var parts []string
	if len(facts) > 0 {
		parts = append(parts, "=== Known Facts ===")
		for _, fact := range facts {
			parts = append(parts, "- "+fact.Key+": "+fact.Value)
		}
		parts = append(parts, "")
	}
	if len(snippets) > 0 {
		parts = append(parts, "=== Relevant Past Conversations ===")
		for _, snippet := range snippets {
			parts = append(parts, snippet, "---")
		}
	}
	return strings.Join(parts, "\n")
}

// SearchMemory runs keyword fact search and semantic conversation search in
// one call, each side toggleable.
func (s *RetrievalService) SearchMemory(ctx context.Context, req *models.SearchRequest) *models.SearchResponse {
	log := s.logger.WithScope(req.UserID, req.CharacterID)

	limit := defaultSearchLimit
	if req.Limit > 0 {
		limit = req.Limit
	}
	searchFacts := req.SearchFacts == nil || *req.SearchFacts
	searchConversations := req.SearchConversations == nil || *req.SearchConversations

	resp := &models.SearchResponse{
		Facts:         []models.FactView{},
		Conversations: []models.ConversationHit{},
	}

	var wg sync.WaitGroup
	if searchFacts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keywords := strings.Fields(strings.ToLower(req.Query))
			found, err := s.facts.SearchFacts(ctx, req.UserID, req.CharacterID, keywords, limit)
			if err != nil {
				log.WithError(models.ErrorInfo{Message: err.Error(), Type: "storage_error"}).
					Error("fact search failed")
				return
			}
			for i := range found {
				resp.Facts = append(resp.Facts, found[i].View())
			}
		}()
	}
	if searchConversations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vector, err := s.embedder.Embed(ctx, req.Query)
			if err != nil {
				log.WithError(models.ErrorInfo{Message: err.Error(), Type: "embedding_error"}).
					Error("query embedding failed")
				return
			}
			found, err := s.vectors.SearchConversations(ctx, req.UserID, req.CharacterID, vector, limit)
			if err != nil {
				log.WithError(models.ErrorInfo{Message: err.Error(), Type: "storage_error"}).
					Error("conversation search failed")
				return
			}
			resp.Conversations = found
		}()
	}
	wg.Wait()
	resp.TotalResults = len(resp.Facts) + len(resp.Conversations)
	return resp
}

// ListFacts returns all stored facts for a scope, optionally filtered by type.
func (s *RetrievalService) ListFacts(ctx context.Context, userID, characterID string, factType models.FactType) ([]models.FactView, error) {
	facts, err := s.facts.ListFacts(ctx, userID, characterID, factType)
	if err != nil {
		return nil, err
	}
	views := make([]models.FactView, 0, len(facts))
	for i := range facts {
		views = append(views, facts[i].View())
	}
	return views, nil
}

// Stats reports how much memory a user/character pair has accumulated.
func (s *RetrievalService) Stats(ctx context.Context, userID, characterID string) (*models.MemoryStats, error) {
	byType, err := s.facts.CountFactsByType(ctx, userID, characterID)
	if err != nil {
		return nil, err
	}
	total := int64(0)
	for _, n := range byType {
		total += n
	}
	conversations, err := s.vectors.ConversationCount(ctx, userID, characterID)
	if err != nil {
		s.logger.WithScope(userID, characterID).
			WithError(models.ErrorInfo{Message: err.Error(), Type: "storage_error"}).
			Error("conversation count failed, reporting facts only")
		conversations = 0
	}
	return &models.MemoryStats{
		UserID:             userID,
		CharacterID:        characterID,
		TotalFacts:         total,
		FactBreakdown:      byType,
		TotalConversations: conversations,
	}, nil
}

// Purge deletes a user's conversation embeddings, optionally scoped to one
// character. Facts are untouched.
func (s *RetrievalService) Purge(ctx context.Context, userID, characterID string) (int64, error) {
	return s.vectors.PurgeConversations(ctx, userID, characterID)
}
