package preferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/internal/events"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
)

type testRunner struct {
	conn *gorm.DB
}

func (r *testRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func setupPreferencesDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`CREATE TABLE IF NOT EXISTS user_preferences (
  user_id INTEGER PRIMARY KEY,
  explicit_tags TEXT,
  implicit_profile TEXT,
  dietary_restrictions TEXT,
  last_updated DATETIME
);`).Error)
	require.NoError(t, conn.Exec(`CREATE TABLE IF NOT EXISTS preference_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  event_type TEXT NOT NULL,
  payload TEXT,
  created_at DATETIME
);`).Error)
	return conn
}

func newPreferencesTestService(conn *gorm.DB) Service {
	return NewService(&testRunner{conn: conn}, conn, events.NewRecorder())
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	conn := setupPreferencesDB(t)
	svc := newPreferencesTestService(conn)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.UserID)
	assert.NotNil(t, first.ExplicitTags)
	assert.NotNil(t, first.DietaryRestrictions)

	second, err := svc.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)

	var count int64
	require.NoError(t, conn.Model(&models.UserPreferences{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateCreatesRowAndEmitsTagInit(t *testing.T) {
	conn := setupPreferencesDB(t)
	svc := newPreferencesTestService(conn)
	ctx := context.Background()

	tags := []string{"spicy", "noodles"}
	dto, err := svc.Update(ctx, 3, UpdateInput{ExplicitTags: &tags})
	require.NoError(t, err)
	assert.Equal(t, tags, dto.ExplicitTags)
	assert.Empty(t, dto.DietaryRestrictions)

	var pref models.UserPreferences
	require.NoError(t, conn.Where("user_id = ?", 3).First(&pref).Error)
	assert.Equal(t, tags, pref.ExplicitTags)

	var event models.PreferenceEvent
	require.NoError(t, conn.Where("user_id = ?", 3).First(&event).Error)
	assert.Equal(t, enums.EventTagInit, event.EventType)
	assert.Contains(t, string(event.Payload), "spicy")
}

func TestUpdateExistingRowEmitsManualEdit(t *testing.T) {
	conn := setupPreferencesDB(t)
	svc := newPreferencesTestService(conn)
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, 4)
	require.NoError(t, err)

	diet := []string{"vegetarian"}
	dto, err := svc.Update(ctx, 4, UpdateInput{DietaryRestrictions: &diet})
	require.NoError(t, err)
	assert.Equal(t, diet, dto.DietaryRestrictions)

	var event models.PreferenceEvent
	require.NoError(t, conn.Where("user_id = ?", 4).First(&event).Error)
	assert.Equal(t, enums.EventManualEdit, event.EventType)
	assert.Contains(t, string(event.Payload), "vegetarian")
}

func TestUpdateLeavesOmittedFieldsUntouched(t *testing.T) {
	conn := setupPreferencesDB(t)
	svc := newPreferencesTestService(conn)
	ctx := context.Background()

	tags := []string{"sweet"}
	diet := []string{"halal"}
	_, err := svc.Update(ctx, 5, UpdateInput{ExplicitTags: &tags, DietaryRestrictions: &diet})
	require.NoError(t, err)

	newTags := []string{"sour"}
	dto, err := svc.Update(ctx, 5, UpdateInput{ExplicitTags: &newTags})
	require.NoError(t, err)
	assert.Equal(t, newTags, dto.ExplicitTags)
	assert.Equal(t, diet, dto.DietaryRestrictions)
}

func TestRefreshFromOrdersEnsuresRow(t *testing.T) {
	conn := setupPreferencesDB(t)
	svc := newPreferencesTestService(conn)
	ctx := context.Background()

	require.NoError(t, svc.RefreshFromOrders(ctx, 7))

	var pref models.UserPreferences
	require.NoError(t, conn.Where("user_id = ?", 7).First(&pref).Error)
	assert.Equal(t, int64(7), pref.UserID)
}
