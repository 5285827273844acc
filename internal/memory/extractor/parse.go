package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"Sarah_AI/internal/models"
)

// ParseExtraction parses the model's raw text output into an
// ExtractionResult. The model is asked for JSON but may wrap its answer in
// explanatory prose, so the substring between the first '{' and the last
// '}' is tried first, then the whole output. The result is unvalidated;
// run it through ValidateExtraction before use.
func ParseExtraction(raw string) (*models.ExtractionResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start != -1 && end > start {
		var result models.ExtractionResult
		if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err == nil {
			return &result, nil
		}
	}

	var result models.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("no parseable JSON in extraction output: %w", err)
	}
	return &result, nil
}

// ValidateExtraction cleans a parsed extraction. Facts are validated
// individually: one missing type, key or value is dropped without failing
// the batch. Fact keys are truncated to the storage limit, entity types
// default to "unknown", empty topics are dropped, and unrecognized
// sentiment collapses to neutral.
func ValidateExtraction(raw *models.ExtractionResult) *models.ExtractionResult {
	validated := models.EmptyExtraction()
	if raw == nil {
		return validated
	}

	for _, fact := range raw.Facts {
		if fact.Type == "" || fact.Key == "" || fact.Value == "" {
			continue
		}
		key := truncateRunes(fact.Key, models.MaxFactKeyLength)
		factType := models.FactType(strings.ToLower(fact.Type))
		if !factType.Valid() {
			factType = models.FactTypeOther
		}
		validated.Facts = append(validated.Facts, models.ExtractedFact{
			Type:  string(factType),
			Key:   key,
			Value: fact.Value,
		})
	}

	for _, entity := range raw.Entities {
		if entity.Name == "" {
			continue
		}
		entityType := strings.ToLower(entity.Type)
		if entityType == "" {
			entityType = "unknown"
		}
		validated.Entities = append(validated.Entities, models.Entity{
			Name: entity.Name,
			Type: entityType,
		})
	}

	for _, topic := range raw.Topics {
		if topic != "" {
			validated.Topics = append(validated.Topics, topic)
		}
	}

	switch raw.Sentiment {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral, models.SentimentMixed:
		validated.Sentiment = raw.Sentiment
	}

	return validated
}

// truncateRunes caps s at max characters. The storage column is measured
// in characters, and a byte slice could split a multi-byte rune and leave
// invalid UTF-8 behind.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
