// Package preferences manages the per-user preference row that feeds the
// recommendation pipeline.
package preferences

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartdine/smartdine-backend/internal/events"
	"github.com/smartdine/smartdine-backend/pkg/db"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
)

// Service reads, lazily creates, and edits preference rows.
type Service interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.UserPreferences, error)
	Get(ctx context.Context, userID int64) (*PreferencesDTO, error)
	Update(ctx context.Context, userID int64, input UpdateInput) (*PreferencesDTO, error)
	RefreshFromOrders(ctx context.Context, userID int64) error
}

// PreferencesDTO is the profile as returned to the owner.
type PreferencesDTO struct {
	ExplicitTags        []string       `json:"explicit_tags"`
	ImplicitProfile     map[string]any `json:"implicit_profile"`
	DietaryRestrictions []string       `json:"dietary_restrictions"`
}

// UpdateInput carries partial edits; nil fields are left unchanged.
type UpdateInput struct {
	ExplicitTags        *[]string
	DietaryRestrictions *[]string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	runner   txRunner
	db       *gorm.DB
	recorder events.Recorder
}

// NewService builds the preferences service.
func NewService(runner txRunner, conn *gorm.DB, recorder events.Recorder) Service {
	return &service{runner: runner, db: conn, recorder: recorder}
}

func (s *service) GetOrCreate(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	var pref models.UserPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}

	fresh := models.UserPreferences{
		UserID:              userID,
		ExplicitTags:        []string{},
		ImplicitProfile:     map[string]any{},
		DietaryRestrictions: []string{},
	}
	if createErr := s.db.WithContext(ctx).Create(&fresh).Error; createErr != nil {
		if db.IsUniqueViolation(createErr, "user_preferences_pkey") {
			var existing models.UserPreferences
			if readErr := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; readErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "re-read preferences after lost insert")
			}
			return &existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create preferences")
	}
	return &fresh, nil
}

func (s *service) Get(ctx context.Context, userID int64) (*PreferencesDTO, error) {
	pref, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDTO(pref), nil
}

// Update applies the caller's explicit edits and appends a lifecycle event in
// the same transaction. The write is a single ON CONFLICT upsert so a row
// created concurrently cannot abort the transaction mid-flight.
func (s *service) Update(ctx context.Context, userID int64, input UpdateInput) (*PreferencesDTO, error) {
	var out *PreferencesDTO
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		pref := models.UserPreferences{
			UserID:              userID,
			ExplicitTags:        []string{},
			ImplicitProfile:     map[string]any{},
			DietaryRestrictions: []string{},
		}
		created := false
		err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
		} else if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
		}

		if input.ExplicitTags != nil {
			pref.ExplicitTags = *input.ExplicitTags
		}
		if input.DietaryRestrictions != nil {
			pref.DietaryRestrictions = *input.DietaryRestrictions
		}

		writeErr := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"explicit_tags", "dietary_restrictions", "last_updated"}),
			}).
			Create(&pref).Error
		if writeErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, writeErr, "save preferences")
		}

		eventType := enums.EventManualEdit
		if created {
			eventType = enums.EventTagInit
		}
		if emitErr := s.recorder.Emit(ctx, tx, events.Event{
			UserID:    userID,
			EventType: eventType,
			Payload: map[string]any{
				"explicit_tags":        pref.ExplicitTags,
				"dietary_restrictions": pref.DietaryRestrictions,
			},
		}); emitErr != nil {
			return emitErr
		}

		out = toDTO(&pref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toDTO(pref *models.UserPreferences) *PreferencesDTO {
	dto := &PreferencesDTO{
		ExplicitTags:        pref.ExplicitTags,
		ImplicitProfile:     pref.ImplicitProfile,
		DietaryRestrictions: pref.DietaryRestrictions,
	}
	if dto.ExplicitTags == nil {
		dto.ExplicitTags = []string{}
	}
	if dto.ImplicitProfile == nil {
		dto.ImplicitProfile = map[string]any{}
	}
	if dto.DietaryRestrictions == nil {
		dto.DietaryRestrictions = []string{}
	}
	return dto
}

// RefreshFromOrders is the profile-learning hook. Aggregation is a later
// iteration; for now it only ensures the row exists and bumps last_updated so
// callers can already depend on the contract.
func (s *service) RefreshFromOrders(ctx context.Context, userID int64) error {
	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.GetOrCreate(ctx, userID); err != nil {
			return err
		}
		return tx.WithContext(ctx).
			Model(&models.UserPreferences{}).
			Where("user_id = ?", userID).
			Update("last_updated", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
}
