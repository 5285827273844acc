package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"Sarah_AI/internal/models"

	"github.com/google/uuid"
)

// InMemoryFactStore is a thread-safe, in-memory FactStore with the same
// upsert and search semantics as the MySQL implementation. It backs tests
// and local development without a database.
type InMemoryFactStore struct {
	mu    sync.Mutex
	facts map[string]map[string]*models.KeyFact // scope key -> fact key -> fact
	seq   uint
}

// NewInMemoryFactStore creates an empty InMemoryFactStore.
func NewInMemoryFactStore() *InMemoryFactStore {
	return &InMemoryFactStore{facts: make(map[string]map[string]*models.KeyFact)}
}

func scopeKey(userID, characterID string) string {
	return fmt.Sprintf("%s:%s", userID, characterID)
}

// UpsertFact inserts or overwrites the fact under the scope lock, so
// concurrent writers for the same key always leave exactly one row.
func (s *InMemoryFactStore) UpsertFact(ctx context.Context, fact *models.KeyFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopeKey(fact.UserID, fact.CharacterID)
	scope, ok := s.facts[key]
	if !ok {
		scope = make(map[string]*models.KeyFact)
		s.facts[key] = scope
	}

	fact.Timestamp = time.Now().UTC()
	if existing, ok := scope[fact.FactKey]; ok {
		existing.FactType = fact.FactType
		existing.FactValue = fact.FactValue
		existing.Timestamp = fact.Timestamp
		return nil
	}

	s.seq++
	stored := *fact
	stored.FactID = s.seq
	scope[fact.FactKey] = &stored
	return nil
}

// SearchFacts matches facts containing any keyword in key or value,
// case-insensitively, newest first. An empty keyword set matches nothing.
func (s *InMemoryFactStore) SearchFacts(ctx context.Context, userID, characterID string, keywords []string, limit int) ([]models.KeyFact, error) {
	if len(keywords) == 0 {
		return []models.KeyFact{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.KeyFact
	for _, fact := range s.facts[scopeKey(userID, characterID)] {
		haystack := strings.ToLower(fact.FactKey) + " " + strings.ToLower(fact.FactValue)
		for _, keyword := range keywords {
			if strings.Contains(haystack, strings.ToLower(keyword)) {
				matched = append(matched, *fact)
				break
			}
		}
	}

	sortFactsNewestFirst(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// ListFacts returns every fact of the scope, newest first, optionally
// filtered by type.
func (s *InMemoryFactStore) ListFacts(ctx context.Context, userID, characterID string, factType models.FactType) ([]models.KeyFact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var facts []models.KeyFact
	for _, fact := range s.facts[scopeKey(userID, characterID)] {
		if factType != "" && fact.FactType != factType {
			continue
		}
		facts = append(facts, *fact)
	}

	sortFactsNewestFirst(facts)
	return facts, nil
}

// CountFactsByType returns the number of stored facts per type.
func (s *InMemoryFactStore) CountFactsByType(ctx context.Context, userID, characterID string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdown := make(map[string]int64)
	for _, fact := range s.facts[scopeKey(userID, characterID)] {
		breakdown[string(fact.FactType)]++
	}
	return breakdown, nil
}

func sortFactsNewestFirst(facts []models.KeyFact) {
	sort.Slice(facts, func(i, j int) bool {
		if facts[i].Timestamp.Equal(facts[j].Timestamp) {
			return facts[i].FactID > facts[j].FactID
		}
		return facts[i].Timestamp.After(facts[j].Timestamp)
	})
}

var _ FactStore = (*InMemoryFactStore)(nil)

type vectorRow struct {
	embeddingID string
	userID      string
	characterID string
	text        string
	embedding   []float32
	timestamp   int64
}

// InMemoryVectorStore is a thread-safe, in-memory VectorStore using exact
// cosine similarity. Like the Milvus implementation, its dimension is fixed
// at construction.
type InMemoryVectorStore struct {
	mu            sync.Mutex
	rows          []vectorRow
	dimension     int
	maxTextLength int
}

// NewInMemoryVectorStore creates an empty store with the given dimension
// and text cap.
func NewInMemoryVectorStore(dimension, maxTextLength int) *InMemoryVectorStore {
	return &InMemoryVectorStore{dimension: dimension, maxTextLength: maxTextLength}
}

// AppendConversation writes one row after checking the dimension and
// truncating the text.
func (s *InMemoryVectorStore) AppendConversation(ctx context.Context, userID, characterID, text string, embedding []float32) (string, error) {
	if len(embedding) != s.dimension {
		return "", fmt.Errorf("%w: got %d, store dimension is %d", ErrDimensionMismatch, len(embedding), s.dimension)
	}
	text = truncateText(text, s.maxTextLength)

	row := vectorRow{
		embeddingID: uuid.New().String(),
		userID:      userID,
		characterID: characterID,
		text:        text,
		embedding:   append([]float32(nil), embedding...),
		timestamp:   time.Now().UTC().Unix(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return row.embeddingID, nil
}

// SearchConversations returns the scope's rows ordered by cosine
// similarity descending, capped at limit.
func (s *InMemoryVectorStore) SearchConversations(ctx context.Context, userID, characterID string, queryEmbedding []float32, limit int) ([]models.ConversationHit, error) {
	if len(queryEmbedding) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, store dimension is %d", ErrDimensionMismatch, len(queryEmbedding), s.dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var hits []models.ConversationHit
	for _, row := range s.rows {
		if row.userID != userID || row.characterID != characterID {
			continue
		}
		hits = append(hits, models.ConversationHit{
			Text:      row.text,
			Score:     cosineSimilarity(queryEmbedding, row.embedding),
			Timestamp: row.timestamp,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// PurgeConversations deletes every row of the user, optionally narrowed to
// one character, and returns the exact count.
func (s *InMemoryVectorStore) PurgeConversations(ctx context.Context, userID, characterID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []vectorRow
	var deleted int64
	for _, row := range s.rows {
		if row.userID == userID && (characterID == "" || row.characterID == characterID) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return deleted, nil
}

// ConversationCount returns the number of stored rows for the scope.
func (s *InMemoryVectorStore) ConversationCount(ctx context.Context, userID, characterID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, row := range s.rows {
		if row.userID == userID && (characterID == "" || row.characterID == characterID) {
			count++
		}
	}
	return count, nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ VectorStore = (*InMemoryVectorStore)(nil)
