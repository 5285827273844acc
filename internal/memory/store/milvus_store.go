package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"Sarah_AI/internal/database/milvus"
	"Sarah_AI/internal/models"

	"github.com/google/uuid"
)

// MilvusVectorStore is the Milvus-backed VectorStore.
type MilvusVectorStore struct {
	client        *milvus.MilvusClient
	dimension     int
	maxTextLength int
}

// NewMilvusVectorStore creates the store and brings the collection into a
// queryable state. A collection created with a different dimension fails
// here, before any traffic is served.
func NewMilvusVectorStore(ctx context.Context, client *milvus.MilvusClient, maxTextLength int) (*MilvusVectorStore, error) {
	if err := client.EnsureCollection(ctx, maxTextLength); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &MilvusVectorStore{
		client:        client,
		dimension:     client.Config.Dimension,
		maxTextLength: maxTextLength,
	}, nil
}

// scopeExpr builds the boolean filter restricting operations to one user
// and optionally one character. IDs are quoted, so embedded quotes are
// stripped rather than risking a malformed expression.
func scopeExpr(userID, characterID string) string {
	sanitize := func(s string) string {
		return strings.NewReplacer(`"`, "", `\`, "").Replace(s)
	}
	expr := fmt.Sprintf(`user_id == "%s"`, sanitize(userID))
	if characterID != "" {
		expr += fmt.Sprintf(` && character_id == "%s"`, sanitize(characterID))
	}
	return expr
}

// AppendConversation writes one embedding row. The write is flushed before
// returning, so the row is guaranteed visible to subsequent searches.
func (s *MilvusVectorStore) AppendConversation(ctx context.Context, userID, characterID, text string, embedding []float32) (string, error) {
	if len(embedding) != s.dimension {
		return "", fmt.Errorf("%w: got %d, store dimension is %d", ErrDimensionMismatch, len(embedding), s.dimension)
	}

	text = truncateText(text, s.maxTextLength)

	embeddingID := uuid.New().String()
	timestamp := time.Now().UTC().Unix()

	if err := s.client.InsertConversation(ctx, embeddingID, userID, characterID, text, timestamp, embedding); err != nil {
		return "", fmt.Errorf("%w: append conversation: %v", ErrStorageUnavailable, err)
	}
	return embeddingID, nil
}

// SearchConversations runs a scoped similarity search. The filter is pushed
// into Milvus together with the vector search, and the store over-fetches
// 2x the limit to tolerate approximate-index false negatives near the
// boundary before re-truncating.
func (s *MilvusVectorStore) SearchConversations(ctx context.Context, userID, characterID string, queryEmbedding []float32, limit int) ([]models.ConversationHit, error) {
	if len(queryEmbedding) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, store dimension is %d", ErrDimensionMismatch, len(queryEmbedding), s.dimension)
	}

	results, err := s.client.Search(ctx, scopeExpr(userID, characterID), queryEmbedding, limit*2)
	if err != nil {
		return nil, fmt.Errorf("%w: search conversations: %v", ErrStorageUnavailable, err)
	}

	var hits []models.ConversationHit
	for _, result := range results {
		textCol := result.Fields.GetColumn(milvus.FieldConversationText)
		tsCol := result.Fields.GetColumn(milvus.FieldTimestamp)
		for i := 0; i < result.ResultCount; i++ {
			hit := models.ConversationHit{Score: result.Scores[i]}
			if textCol != nil {
				hit.Text, _ = textCol.GetAsString(i)
			}
			if tsCol != nil {
				hit.Timestamp, _ = tsCol.GetAsInt64(i)
			}
			hits = append(hits, hit)
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// PurgeConversations deletes every row of the scope. The count is taken
// before the delete and is best-effort.
func (s *MilvusVectorStore) PurgeConversations(ctx context.Context, userID, characterID string) (int64, error) {
	expr := scopeExpr(userID, characterID)

	count, err := s.client.CountByExpr(ctx, expr)
	if err != nil {
		count = 0
	}

	if err := s.client.DeleteByExpr(ctx, expr); err != nil {
		return 0, fmt.Errorf("%w: purge conversations: %v", ErrStorageUnavailable, err)
	}
	return count, nil
}

// ConversationCount returns the number of stored rows for the scope.
func (s *MilvusVectorStore) ConversationCount(ctx context.Context, userID, characterID string) (int64, error) {
	count, err := s.client.CountByExpr(ctx, scopeExpr(userID, characterID))
	if err != nil {
		return 0, fmt.Errorf("%w: count conversations: %v", ErrStorageUnavailable, err)
	}
	return count, nil
}

var _ VectorStore = (*MilvusVectorStore)(nil)
