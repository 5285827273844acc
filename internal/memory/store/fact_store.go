package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Sarah_AI/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFactStore is the MySQL-backed FactStore. The uniqueness constraint on
// (user_id, character_id, fact_key) is the only concurrency-control
// primitive: the upsert is a single INSERT ... ON DUPLICATE KEY UPDATE, so
// there is no check-then-act window between concurrent writers.
type GormFactStore struct {
	db *gorm.DB
}

// NewGormFactStore creates a GormFactStore and migrates the key_facts
// table.
func NewGormFactStore(db *gorm.DB) (*GormFactStore, error) {
	if err := db.AutoMigrate(&models.KeyFact{}); err != nil {
		return nil, fmt.Errorf("failed to migrate key_facts table: %w", err)
	}
	return &GormFactStore{db: db}, nil
}

// UpsertFact inserts the fact or overwrites value, type and timestamp of
// the existing row with the same (user, character, key).
func (s *GormFactStore) UpsertFact(ctx context.Context, fact *models.KeyFact) error {
	fact.Timestamp = time.Now().UTC()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "character_id"},
			{Name: "fact_key"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"fact_type", "fact_value", "timestamp"}),
	}).Create(fact).Error
	if err != nil {
		return fmt.Errorf("%w: upsert fact '%s': %v", ErrStorageUnavailable, fact.FactKey, err)
	}
	return nil
}

// SearchFacts matches any fact whose key or value contains one of the
// keywords, newest first. No keywords means no conditions, and no
// conditions must not degenerate into a full scan of the scope.
func (s *GormFactStore) SearchFacts(ctx context.Context, userID, characterID string, keywords []string, limit int) ([]models.KeyFact, error) {
	if len(keywords) == 0 {
		return []models.KeyFact{}, nil
	}

	match := s.db.Session(&gorm.Session{NewDB: true})
	for _, keyword := range keywords {
		pattern := "%" + strings.ToLower(keyword) + "%"
		match = match.Or("LOWER(fact_key) LIKE ?", pattern).
			Or("LOWER(fact_value) LIKE ?", pattern)
	}

	var facts []models.KeyFact
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND character_id = ?", userID, characterID).
		Where(match).
		Order("timestamp DESC").
		Limit(limit).
		Find(&facts).Error
	if err != nil {
		return nil, fmt.Errorf("%w: search facts: %v", ErrStorageUnavailable, err)
	}
	return facts, nil
}

// ListFacts returns every fact of the scope, newest first, optionally
// filtered by type.
func (s *GormFactStore) ListFacts(ctx context.Context, userID, characterID string, factType models.FactType) ([]models.KeyFact, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND character_id = ?", userID, characterID)
	if factType != "" {
		q = q.Where("fact_type = ?", factType)
	}

	var facts []models.KeyFact
	if err := q.Order("timestamp DESC").Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("%w: list facts: %v", ErrStorageUnavailable, err)
	}
	return facts, nil
}

// CountFactsByType returns the number of stored facts per type.
func (s *GormFactStore) CountFactsByType(ctx context.Context, userID, characterID string) (map[string]int64, error) {
	var rows []struct {
		FactType string
		Count    int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.KeyFact{}).
		Select("fact_type, COUNT(*) AS count").
		Where("user_id = ? AND character_id = ?", userID, characterID).
		Group("fact_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: count facts: %v", ErrStorageUnavailable, err)
	}

	breakdown := make(map[string]int64, len(rows))
	for _, row := range rows {
		breakdown[row.FactType] = row.Count
	}
	return breakdown, nil
}

var _ FactStore = (*GormFactStore)(nil)
