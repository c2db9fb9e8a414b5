// Package events appends lifecycle records inside the caller's transaction so
// an event is durable iff the state change that produced it committed.
package events

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
)

// Event is one lifecycle record to append.
type Event struct {
	UserID    int64
	EventType enums.PreferenceEventType
	Payload   any
}

// Recorder writes append-only preference events.
type Recorder interface {
	Emit(ctx context.Context, tx *gorm.DB, event Event) error
}

type recorder struct{}

// NewRecorder returns the default transactional recorder.
func NewRecorder() Recorder {
	return recorder{}
}

func (recorder) Emit(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for event emit")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode event payload")
	}

	row := models.PreferenceEvent{
		UserID:    event.UserID,
		EventType: event.EventType,
		Payload:   payload,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append lifecycle event")
	}
	return nil
}
