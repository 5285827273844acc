package extractor

import (
	"context"

	"Sarah_AI/internal/models"
)

// Extractor derives structured memories from one conversation turn. An
// implementation must never fail a whole turn because its model misbehaved:
// unusable output degrades to an empty extraction.
type Extractor interface {
	Extract(ctx context.Context, turn *models.ConversationTurn) (*models.ExtractionResult, error)
}
