package store

import (
	"context"
	"errors"
	"unicode/utf8"

	"Sarah_AI/internal/models"
)

// ErrStorageUnavailable marks a backing store that cannot be reached.
// Retrieval degrades on it; ingestion drops the current turn on it.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrDimensionMismatch marks an embedding whose length does not match the
// store's fixed dimension. The row is not written.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// FactStore holds durable keyed facts about a (user, character) pair. At
// most one fact exists per (user, character, key); writes are upserts.
type FactStore interface {
	// UpsertFact atomically inserts the fact or overwrites the existing
	// row's value and timestamp. Concurrent writers for the same key must
	// never produce a duplicate-key failure or a lost row.
	UpsertFact(ctx context.Context, fact *models.KeyFact) error

	// SearchFacts returns facts whose key or value contains any of the
	// keywords, case-insensitively, newest first, capped at limit. An
	// empty keyword set returns no facts, never the whole scope.
	SearchFacts(ctx context.Context, userID, characterID string, keywords []string, limit int) ([]models.KeyFact, error)

	// ListFacts returns every fact for the scope, newest first, optionally
	// filtered by type.
	ListFacts(ctx context.Context, userID, characterID string, factType models.FactType) ([]models.KeyFact, error)

	// CountFactsByType returns the number of stored facts per type.
	CountFactsByType(ctx context.Context, userID, characterID string) (map[string]int64, error)
}

// VectorStore holds immutable conversation embeddings for similarity
// search. Rows are appended by ingestion, read by retrieval, and removed
// only through bulk purges.
type VectorStore interface {
	// AppendConversation writes one embedding row and returns its generated
	// ID. Text beyond the store's maximum length is truncated; the row is
	// visible to searches when the call returns.
	AppendConversation(ctx context.Context, userID, characterID, text string, embedding []float32) (string, error)

	// SearchConversations returns up to limit rows of the given scope
	// ordered by similarity score descending.
	SearchConversations(ctx context.Context, userID, characterID string, queryEmbedding []float32, limit int) ([]models.ConversationHit, error)

	// PurgeConversations deletes all rows of a user, optionally narrowed to
	// one character, and returns a best-effort count.
	PurgeConversations(ctx context.Context, userID, characterID string) (int64, error)

	// ConversationCount returns the number of stored rows for the scope.
	ConversationCount(ctx context.Context, userID, characterID string) (int64, error)
}

// truncateText caps text at max characters before storage. Cutting bytes
// instead could split a multi-byte rune at the boundary, and both backends
// reject invalid UTF-8.
func truncateText(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max])
}
