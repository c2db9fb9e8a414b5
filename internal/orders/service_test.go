package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/internal/addresses"
	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/internal/events"
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

func setupOrderTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE IF NOT EXISTS dish_specs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  dish_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  options TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS user_addresses (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  contact_name TEXT NOT NULL,
  phone TEXT NOT NULL,
  address_line TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  address_id INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  context TEXT,
  address_snapshot TEXT,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  dish_id INTEGER NOT NULL,
  dish_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  selected_options TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS preference_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  event_type TEXT NOT NULL,
  payload TEXT,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newOrderTestService(conn *gorm.DB) Service {
	return NewService(
		&testRunner{conn: conn},
		NewRepository(conn),
		dishes.NewRepository(conn),
		addresses.NewRepository(conn),
		events.NewRecorder(),
	)
}

func seedAddress(t *testing.T, conn *gorm.DB, userID int64) int64 {
	t.Helper()
	addr := models.UserAddress{
		UserID:      userID,
		ContactName: "Alex",
		Phone:       "13800000000",
		AddressLine: "1 Main St",
	}
	require.NoError(t, conn.Create(&addr).Error)
	return addr.ID
}

func seedOrderDish(t *testing.T, conn *gorm.DB, name string, cents int64) int64 {
	t.Helper()
	dish := models.Dish{Name: name, PriceCents: money.Cents(cents), Status: enums.DishStatusOnSale}
	require.NoError(t, conn.Create(&dish).Error)
	return dish.ID
}

func countEvents(t *testing.T, conn *gorm.DB, eventType enums.PreferenceEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.PreferenceEvent{}).
		Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func TestCreateOrderRequiresAddressAndItems(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateInput{Items: []LineItem{{DishID: 1, Quantity: 1}}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing address, got %v", err)
	}

	_, err = svc.Create(ctx, 1, CreateInput{AddressID: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty items, got %v", err)
	}
}

func TestCreateOrderAddressChecks(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn)
	ctx := context.Background()

	dishID := seedOrderDish(t, conn, "Noodles", 1200)
	foreignAddr := seedAddress(t, conn, 99)

	_, err := svc.Create(ctx, 1, CreateInput{
		AddressID: 12345,
		Items:     []LineItem{{DishID: dishID, Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for missing address, got %v", err)
	}

	_, err = svc.Create(ctx, 1, CreateInput{
		AddressID: foreignAddr,
		Items:     []LineItem{{DishID: dishID, Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign address, got %v", err)
	}
}

func TestCreateOrderDishChecks(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn)
	ctx := context.Background()

	addrID := seedAddress(t, conn, 1)
	okDish := seedOrderDish(t, conn, "Noodles", 1200)

	_, err := svc.Create(ctx, 1, CreateInput{
		AddressID: addrID,
		Items: []LineItem{
			{DishID: okDish, Quantity: 1},
			{DishID: 7777, Quantity: 1},
			{DishID: 8888, Quantity: 1},
		},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for missing dishes, got %v", err)
	}
	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []int64{7777, 8888}, details["dish_ids"])

	offSale := models.Dish{Name: "Gone", PriceCents: 500, Status: enums.DishStatusOffSale}
	require.NoError(t, conn.Create(&offSale).Error)
	_, err = svc.Create(ctx, 1, CreateInput{
		AddressID: addrID,
		Items:     []LineItem{{DishID: offSale.ID, Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for off-sale dish, got %v", err)
	}

	// no partial writes after a failed create
	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestCreateOrderSpecValidation(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn)
	ctx := context.Background()

	addrID := seedAddress(t, conn, 1)
	dishID := seedOrderDish(t, conn, "Milk Tea", 1000)
	require.NoError(t, conn.Exec(
		`INSERT INTO dish_specs (dish_id, name, options) VALUES (?, 'size', '[{"name":"regular"},{"name":"large","price_delta_cents":200}]')`,
		dishID,
	).Error)

	_, err := svc.Create(ctx, 1, CreateInput{
		AddressID: addrID,
		Items: []LineItem{{
			DishID: dishID, Quantity: 1,
			SelectedOptions: types.Selection{"temperature": "iced"},
		}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown spec group, got %v", err)
	}

	_, err = svc.Create(ctx, 1, CreateInput{
		AddressID: addrID,
		Items: []LineItem{{
			DishID: dishID, Quantity: 1,
			SelectedOptions: types.Selection{"size": "gigantic"},
		}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown spec option, got %v", err)
	}
}

func TestCreateOrderAppliesOptionDeltasAndSnapshotsPrice(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn)
	ctx := context.Background()

	addrID := seedAddress(t, conn, 1)
	dishID := seedOrderDish(t, conn, "Milk Tea", 1000)
	require.NoError(t, conn.Exec(
		`INSERT INTO dish_specs (dish_id, name, options) VALUES (?, 'size', '[{"name":"regular"},{"name":"large","price_delta_cents":200}]')`,
		dishID,
	).Error)

	order, err := svc.Create(ctx, 1, CreateInput{
		AddressID: addrID,
		Items: []LineItem{{
			DishID: dishID, Quantity: 2,
			SelectedOptions: types.Selection{"size": "large"},
		}},
	})
	require.NoError(t, err)

	// 2 x (10.00 + 2.00)
	assert.Equal(t, 24.00, order.TotalAmount)
	assert.Equal(t, "pending", order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 12.00, order.Items[0].UnitPrice)
	assert.Equal(t, "Milk Tea", order.Items[0].DishName)

	// the total is frozen at creation
	require.NoError(t, conn.Exec("UPDATE dishes SET price_cents = 9900 WHERE id = ?", dishID).Error)
	reloaded, err := svc.Get(ctx, 1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 24.00, reloaded.TotalAmount)
	assert.Equal(t, 12.00, reloaded.Items[0].UnitPrice)
}

func TestCreateOrderContextSnapshot(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn).(*service)
	svc.clock = func() time.Time {
		return time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)
	}
	ctx := context.Background()

	addrID := seedAddress(t, conn, 1)
	dishID := seedOrderDish(t, conn, "Noodles", 1200)

	order, err := svc.Create(ctx, 1, CreateInput{
		AddressID: addrID,
		Items:     []LineItem{{DishID: dishID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.MealBucketLunch, order.Context.MealBucket)
	assert.Equal(t, int(time.Monday), order.Context.Weekday)
}

func TestSetStatusPaidIncrementsSalesOncePerDish(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn)
	ctx := context.Background()

	addrID := seedAddress(t, conn, 1)
	dishID := seedOrderDish(t, conn, "Dumplings", 1500)

	// two lines of the same dish with different selections
	order, err := svc.Create(ctx, 1, CreateInput{
		AddressID: addrID,
		Items: []LineItem{
			{DishID: dishID, Quantity: 2},
			{DishID: dishID, Quantity: 3, SelectedOptions: types.Selection{}},
		},
	})
	require.NoError(t, err)

	paid, err := svc.SetStatus(ctx, 1, order.ID, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)

	var dish models.Dish
	require.NoError(t, conn.First(&dish, dishID).Error)
	assert.Equal(t, int64(5), dish.SalesCount)
	assert.Equal(t, int64(1), countEvents(t, conn, enums.EventOrderPaid))

	// a second paid attempt must fail and must not double-count
	_, err = svc.SetStatus(ctx, 1, order.ID, enums.OrderStatusPaid)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on double pay, got %v", err)
	}
	require.NoError(t, conn.First(&dish, dishID).Error)
	assert.Equal(t, int64(5), dish.SalesCount)
	assert.Equal(t, int64(1), countEvents(t, conn, enums.EventOrderPaid))
}

func TestSetStatusLattice(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn)
	ctx := context.Background()

	addrID := seedAddress(t, conn, 1)
	dishID := seedOrderDish(t, conn, "Noodles", 1200)

	newOrder := func() int64 {
		order, err := svc.Create(ctx, 1, CreateInput{
			AddressID: addrID,
			Items:     []LineItem{{DishID: dishID, Quantity: 1}},
		})
		require.NoError(t, err)
		return order.ID
	}

	// pending -> completed is not allowed
	id := newOrder()
	_, err := svc.SetStatus(ctx, 1, id, enums.OrderStatusCompleted)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// pending -> cancelled emits the event and is terminal
	id = newOrder()
	_, err = svc.SetStatus(ctx, 1, id, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(1), countEvents(t, conn, enums.EventOrderCancelled))
	_, err = svc.SetStatus(ctx, 1, id, enums.OrderStatusPaid)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected terminal state to be frozen, got %v", err)
	}

	// pending -> paid -> completed is the happy path
	id = newOrder()
	_, err = svc.SetStatus(ctx, 1, id, enums.OrderStatusPaid)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, 1, id, enums.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), countEvents(t, conn, enums.EventOrderCompleted))
	_, err = svc.SetStatus(ctx, 1, id, enums.OrderStatusCancelled)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected terminal state to be frozen, got %v", err)
	}
}

func TestSetStatusOwnership(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderTestService(conn)
	ctx := context.Background()

	addrID := seedAddress(t, conn, 1)
	dishID := seedOrderDish(t, conn, "Noodles", 1200)
	order, err := svc.Create(ctx, 1, CreateInput{
		AddressID: addrID,
		Items:     []LineItem{{DishID: dishID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, 2, order.ID, enums.OrderStatusPaid)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}
}
