package models

import (
	"encoding/json"
	"time"

	"github.com/smartdine/smartdine-backend/pkg/enums"
)

// ChatSession scopes a recommendation conversation to a user.
type ChatSession struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Summary   *string   `gorm:"column:summary;size:200"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ChatMessage records one conversation turn. Assistant turns keep the audit
// trail that makes the candidate-only invariant checkable after the fact: the
// candidate ids offered and the dish ids actually recommended.
type ChatMessage struct {
	ID                 int64           `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID          int64           `gorm:"column:session_id;not null;index"`
	Role               enums.ChatRole  `gorm:"column:role;size:20;not null"`
	Content            string          `gorm:"column:content;not null"`
	RecommendedDishIDs []int64         `gorm:"column:recommended_dish_ids;type:jsonb;serializer:json"`
	CandidateDishIDs   []int64         `gorm:"column:candidate_dish_ids;type:jsonb;serializer:json"`
	Meta               json.RawMessage `gorm:"column:meta;type:jsonb"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}
