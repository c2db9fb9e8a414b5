package models

import (
	"encoding/json"
	"time"

	"github.com/smartdine/smartdine-backend/pkg/enums"
)

// PreferenceEvent is an append-only lifecycle record consumed by downstream
// analytics. Rows are never updated or deleted.
type PreferenceEvent struct {
	ID        int64                     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64                     `gorm:"column:user_id;not null;index"`
	EventType enums.PreferenceEventType `gorm:"column:event_type;size:30;not null"`
	Payload   json.RawMessage           `gorm:"column:payload;type:jsonb"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
