package types

import (
	"time"

	"github.com/smartdine/smartdine-backend/pkg/enums"
)

// OrderContext snapshots the creation moment of an order. Written once at
// creation and never updated.
type OrderContext struct {
	CreatedAtUTC time.Time        `json:"created_at_utc"`
	MealBucket   enums.MealBucket `json:"meal_bucket"`
	Weekday      int              `json:"weekday"`
}

// NewOrderContext derives the snapshot from a timestamp.
func NewOrderContext(now time.Time) OrderContext {
	utc := now.UTC()
	return OrderContext{
		CreatedAtUTC: utc,
		MealBucket:   enums.MealBucketFor(utc),
		Weekday:      int(utc.Weekday()),
	}
}

// AddressSnapshot freezes the delivery address fields on the order row.
type AddressSnapshot struct {
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
}
