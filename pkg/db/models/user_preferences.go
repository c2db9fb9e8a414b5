package models

import "time"

// UserPreferences feeds the recommendation pipeline: explicit tags, hard
// dietary restrictions, and the implicit profile built by downstream jobs.
type UserPreferences struct {
	UserID              int64          `gorm:"column:user_id;primaryKey"`
	ExplicitTags        []string       `gorm:"column:explicit_tags;type:jsonb;serializer:json"`
	ImplicitProfile     map[string]any `gorm:"column:implicit_profile;type:jsonb;serializer:json"`
	DietaryRestrictions []string       `gorm:"column:dietary_restrictions;type:jsonb;serializer:json"`
	LastUpdated         time.Time      `gorm:"column:last_updated;autoUpdateTime"`
}
