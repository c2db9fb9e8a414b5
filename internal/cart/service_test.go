package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/money"
	"github.com/smartdine/smartdine-backend/pkg/types"
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

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS dishes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id INTEGER,
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  image_url TEXT,
  status TEXT NOT NULL DEFAULT 'on_sale',
  meta TEXT,
  sales_count INTEGER NOT NULL DEFAULT 0,
  rating_avg REAL NOT NULL DEFAULT 5.0,
  rating_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS carts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  updated_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user ON carts (user_id);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cart_id INTEGER NOT NULL,
  dish_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  selected_options TEXT,
  spec_key TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_merge ON cart_items (cart_id, dish_id, spec_key);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newCartTestService(conn *gorm.DB) Service {
	return NewService(&testRunner{conn: conn}, NewRepository(conn), dishes.NewRepository(conn))
}

func seedDish(t *testing.T, conn *gorm.DB, name string, cents int64, status enums.DishStatus) int64 {
	t.Helper()
	dish := models.Dish{Name: name, PriceCents: money.Cents(cents), Status: status}
	require.NoError(t, conn.Create(&dish).Error)
	return dish.ID
}

func TestAddItemRejectsUnavailableDish(t *testing.T) {
	conn := setupCartTestDB(t)
	svc := newCartTestService(conn)

	soldOut := seedDish(t, conn, "Sold Out Special", 1000, enums.DishStatusSoldOut)

	err := svc.AddItem(context.Background(), 1, AddItemInput{DishID: soldOut, Quantity: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for unsellable dish, got %v", err)
	}

	err = svc.AddItem(context.Background(), 1, AddItemInput{DishID: 9999, Quantity: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for missing dish, got %v", err)
	}
}

func TestAddItemMergesSameSelectionRegardlessOfKeyOrder(t *testing.T) {
	conn := setupCartTestDB(t)
	svc := newCartTestService(conn)
	ctx := context.Background()

	dishID := seedDish(t, conn, "Bubble Tea", 900, enums.DishStatusOnSale)

	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{
		DishID:          dishID,
		Quantity:        2,
		SelectedOptions: types.Selection{"size": "large", "ice": "less"},
	}))
	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{
		DishID:          dishID,
		Quantity:        3,
		SelectedOptions: types.Selection{"ice": "less", "size": "large"},
	}))

	view, err := svc.View(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 45.00, view.Total)
}

func TestAddItemKeepsDistinctSelectionsApart(t *testing.T) {
	conn := setupCartTestDB(t)
	svc := newCartTestService(conn)
	ctx := context.Background()

	dishID := seedDish(t, conn, "Bubble Tea", 900, enums.DishStatusOnSale)

	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{
		DishID: dishID, Quantity: 1,
		SelectedOptions: types.Selection{"size": "large"},
	}))
	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{
		DishID: dishID, Quantity: 1,
		SelectedOptions: types.Selection{"size": "small"},
	}))

	view, err := svc.View(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestViewDropsVanishedDishes(t *testing.T) {
	conn := setupCartTestDB(t)
	svc := newCartTestService(conn)
	ctx := context.Background()

	keep := seedDish(t, conn, "Dumplings", 1500, enums.DishStatusOnSale)
	gone := seedDish(t, conn, "Retired Dish", 2000, enums.DishStatusOnSale)

	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{DishID: keep, Quantity: 2}))
	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{DishID: gone, Quantity: 1}))

	require.NoError(t, conn.Exec("DELETE FROM dishes WHERE id = ?", gone).Error)

	view, err := svc.View(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, keep, view.Items[0].DishID)
	assert.Equal(t, 30.00, view.Total)
}

func TestViewUsesLivePrice(t *testing.T) {
	conn := setupCartTestDB(t)
	svc := newCartTestService(conn)
	ctx := context.Background()

	dishID := seedDish(t, conn, "Noodles", 1200, enums.DishStatusOnSale)
	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{DishID: dishID, Quantity: 1}))

	require.NoError(t, conn.Exec("UPDATE dishes SET price_cents = 1500 WHERE id = ?", dishID).Error)

	view, err := svc.View(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 15.00, view.Total)
}

func TestUpdateItemOwnershipAndPartialUpdate(t *testing.T) {
	conn := setupCartTestDB(t)
	svc := newCartTestService(conn)
	ctx := context.Background()

	dishID := seedDish(t, conn, "Fried Rice", 1800, enums.DishStatusOnSale)
	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{DishID: dishID, Quantity: 1}))

	view, err := svc.View(ctx, 1)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	// another user cannot touch it
	qty := 5
	err = svc.UpdateItem(ctx, 2, itemID, UpdateItemInput{Quantity: &qty})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign item, got %v", err)
	}

	require.NoError(t, svc.UpdateItem(ctx, 1, itemID, UpdateItemInput{Quantity: &qty}))

	view, err = svc.View(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)

	zero := 0
	err = svc.UpdateItem(ctx, 1, itemID, UpdateItemInput{Quantity: &zero})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
}

func TestCreateIfAbsentLosesRaceWithoutError(t *testing.T) {
	conn := setupCartTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	winner := &models.Cart{UserID: 7}
	created, err := repo.CreateIfAbsent(ctx, winner)
	require.NoError(t, err)
	assert.True(t, created)

	loser := &models.Cart{UserID: 7}
	created, err = repo.CreateIfAbsent(ctx, loser)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, conn.Model(&models.Cart{}).Where("user_id = ?", 7).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertLineFoldsQuantityIntoExistingRow(t *testing.T) {
	conn := setupCartTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := &models.CartItem{CartID: 1, DishID: 2, Quantity: 2, SpecKey: "size=large"}
	require.NoError(t, repo.UpsertLine(ctx, first))

	second := &models.CartItem{CartID: 1, DishID: 2, Quantity: 3, SpecKey: "size=large"}
	require.NoError(t, repo.UpsertLine(ctx, second))

	items, err := repo.Items(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddItemReusesPreexistingCart(t *testing.T) {
	conn := setupCartTestDB(t)
	svc := newCartTestService(conn)
	ctx := context.Background()

	require.NoError(t, conn.Create(&models.Cart{UserID: 1}).Error)

	dishID := seedDish(t, conn, "Wonton Soup", 1100, enums.DishStatusOnSale)
	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{DishID: dishID, Quantity: 1}))

	var count int64
	require.NoError(t, conn.Model(&models.Cart{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	view, err := svc.View(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestRemoveItemOwnership(t *testing.T) {
	conn := setupCartTestDB(t)
	svc := newCartTestService(conn)
	ctx := context.Background()

	dishID := seedDish(t, conn, "Spring Rolls", 800, enums.DishStatusOnSale)
	require.NoError(t, svc.AddItem(ctx, 1, AddItemInput{DishID: dishID, Quantity: 1}))

	view, err := svc.View(ctx, 1)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	err = svc.RemoveItem(ctx, 2, itemID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign item, got %v", err)
	}

	require.NoError(t, svc.RemoveItem(ctx, 1, itemID))

	view, err = svc.View(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}
