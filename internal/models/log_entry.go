package models

// ErrorInfo carries structured error details for logging and telemetry.
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // e.g. "storage_error", "validation_error"
	StatusCode int    `json:"status_code,omitempty"` // related HTTP status, if any
}

// PipelineEvent records the outcome of processing one conversation turn.
// Events are shipped to Kafka for offline analysis; publishing is
// fire-and-forget and never blocks the pipeline.
type PipelineEvent struct {
	ServiceName    string `json:"service_name"`
	UserID         string `json:"user_id"`
	CharacterID    string `json:"character_id"`
	Outcome        string `json:"outcome"` // "done", "partial" or "failed"
	FactsExtracted int    `json:"facts_extracted"`
	FactsStored    int    `json:"facts_stored"`
	EmbeddingID    string `json:"embedding_id,omitempty"`
	Error          string `json:"error,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}
