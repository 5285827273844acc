package models

// Sentiment values recognized in extraction output. Anything else collapses
// to SentimentNeutral.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// ExtractedFact is one fact candidate produced by the extraction model. It
// becomes a KeyFact only after validation.
type ExtractedFact struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entity is a named entity mentioned in a conversation turn.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ExtractionResult is the structured output of one extraction call. It is
// transient: consumed by the ingestion pipeline and then discarded.
type ExtractionResult struct {
	Facts     []ExtractedFact `json:"facts"`
	Entities  []Entity        `json:"entities"`
	Topics    []string        `json:"topics"`
	Sentiment string          `json:"sentiment"`
}

// EmptyExtraction returns the neutral zero result used when extraction
// fails or produces nothing usable.
func EmptyExtraction() *ExtractionResult {
	return &ExtractionResult{
		Facts:     []ExtractedFact{},
		Entities:  []Entity{},
		Topics:    []string{},
		Sentiment: SentimentNeutral,
	}
}
