package models

import "time"

// FactType classifies a stored fact about a user.
type FactType string

const (
	FactTypePreference   FactType = "preference"
	FactTypeEvent        FactType = "event"
	FactTypeRelationship FactType = "relationship"
	FactTypePersonalInfo FactType = "personal_info"
	FactTypeGoal         FactType = "goal"
	FactTypeHabit        FactType = "habit"
	FactTypeOther        FactType = "other"
)

// MaxFactKeyLength is the upper bound on fact keys; extracted keys are
// truncated to it, API-supplied keys are rejected beyond it.
const MaxFactKeyLength = 255

// Valid reports whether t is one of the known fact types.
func (t FactType) Valid() bool {
	switch t {
	case FactTypePreference, FactTypeEvent, FactTypeRelationship,
		FactTypePersonalInfo, FactTypeGoal, FactTypeHabit, FactTypeOther:
		return true
	}
	return false
}

// KeyFact is one durable belief about a user, scoped to a character. The
// unique index on (user_id, character_id, fact_key) makes writes upserts:
// a second write to the same key overwrites value and timestamp.
type KeyFact struct {
	FactID      uint      `gorm:"column:fact_id;primaryKey;autoIncrement" json:"fact_id"`
	UserID      string    `gorm:"column:user_id;size:255;not null;uniqueIndex:uq_user_character_fact,priority:1;index:idx_facts_user_character,priority:1" json:"user_id"`
	CharacterID string    `gorm:"column:character_id;size:255;not null;uniqueIndex:uq_user_character_fact,priority:2;index:idx_facts_user_character,priority:2" json:"character_id"`
	FactType    FactType  `gorm:"column:fact_type;size:50;not null;index:idx_facts_type" json:"fact_type"`
	FactKey     string    `gorm:"column:fact_key;size:255;not null;uniqueIndex:uq_user_character_fact,priority:3" json:"fact_key"`
	FactValue   string    `gorm:"column:fact_value;type:text;not null" json:"fact_value"`
	Timestamp   time.Time `gorm:"column:timestamp;index:idx_facts_timestamp" json:"timestamp"`
}

// TableName keeps the table name aligned with the shared platform schema.
func (KeyFact) TableName() string { return "key_facts" }

// View converts the stored row into the wire representation used by the
// retrieval and search responses.
func (f *KeyFact) View() FactView {
	return FactView{
		Type:      string(f.FactType),
		Key:       f.FactKey,
		Value:     f.FactValue,
		Timestamp: f.Timestamp.UTC().Format(time.RFC3339),
	}
}

// FactView is the wire representation of a fact.
type FactView struct {
	Type      string `json:"type"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Timestamp string `json:"timestamp"`
}
