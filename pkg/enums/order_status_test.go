package enums

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitionLattice(t *testing.T) {
	all := []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled}
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusPaid}:      true,
		{OrderStatusPending, OrderStatusCancelled}: true,
		{OrderStatusPaid, OrderStatusCompleted}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]OrderStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusPaid.IsTerminal())
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("paid")
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, status)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestMealBucketBoundaries(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		hour int
		want MealBucket
	}{
		{4, MealBucketLateNight},
		{5, MealBucketBreakfast},
		{10, MealBucketBreakfast},
		{11, MealBucketLunch},
		{14, MealBucketLunch},
		{15, MealBucketDinner},
		{21, MealBucketDinner},
		{22, MealBucketLateNight},
		{0, MealBucketLateNight},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MealBucketFor(at(tc.hour)), "hour %d", tc.hour)
	}
}

func TestMealBucketUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	// 20:00 local is 12:00 UTC, which is lunch.
	local := time.Date(2025, 6, 1, 20, 0, 0, 0, loc)
	assert.Equal(t, MealBucketLunch, MealBucketFor(local))
}

func TestDishStatusSellable(t *testing.T) {
	assert.True(t, DishStatusOnSale.Sellable())
	assert.False(t, DishStatusOffSale.Sellable())
	assert.False(t, DishStatusSoldOut.Sellable())
}
