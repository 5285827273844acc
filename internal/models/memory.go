package models

// ConversationTurn is one (user message, AI response) exchange published by
// the chat orchestrator on the turn queue. Delivery is at-most-once: a lost
// turn means lost memory extraction, not data corruption.
type ConversationTurn struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
	SessionID   string `json:"session_id,omitempty"`
}

// ConversationHit is one result of a vector similarity search.
type ConversationHit struct {
	Text      string  `json:"text"`
	Score     float32 `json:"score"`
	Timestamp int64   `json:"timestamp"`
}

// RetrievalRequest asks for context to enrich a live message with.
type RetrievalRequest struct {
	Message     string `json:"message" binding:"required"`
	UserID      string `json:"user_id" binding:"required"`
	CharacterID string `json:"character_id" binding:"required"`
	MaxFacts    *int   `json:"max_facts" binding:"omitempty,min=1,max=50"`
	MaxSnippets *int   `json:"max_snippets" binding:"omitempty,min=1,max=20"`
}

// RetrievalResponse carries the merged context. An empty context means no
// enrichment was available; it is not an error.
type RetrievalResponse struct {
	Context              string     `json:"context"`
	RelevantFacts        []FactView `json:"relevant_facts"`
	ConversationSnippets []string   `json:"conversation_snippets"`
}

// FactWriteRequest is an explicit fact upsert through the API.
type FactWriteRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	CharacterID string `json:"character_id" binding:"required"`
	FactType    string `json:"fact_type" binding:"required"`
	FactKey     string `json:"fact_key" binding:"required,max=255"`
	FactValue   string `json:"fact_value" binding:"required"`
}

// SearchRequest searches both memory stores in one call. The scope is a
// full (user, character) pair, matching retrieval; cross-character reads
// exist only on the purge path. The per-source toggles default to true
// when omitted.
type SearchRequest struct {
	Query               string `json:"query" binding:"required"`
	UserID              string `json:"user_id" binding:"required"`
	CharacterID         string `json:"character_id" binding:"required"`
	SearchFacts         *bool  `json:"search_facts"`
	SearchConversations *bool  `json:"search_conversations"`
	Limit               int    `json:"limit" binding:"omitempty,min=1,max=100"`
}

// SearchResponse carries the combined search results.
type SearchResponse struct {
	Facts         []FactView        `json:"facts"`
	Conversations []ConversationHit `json:"conversations"`
	TotalResults  int               `json:"total_results"`
}

// MemoryStats summarizes what is stored for one (user, character) scope.
type MemoryStats struct {
	UserID             string           `json:"user_id"`
	CharacterID        string           `json:"character_id"`
	TotalFacts         int64            `json:"total_facts"`
	FactBreakdown      map[string]int64 `json:"fact_breakdown"`
	TotalConversations int64            `json:"total_conversations"`
}
