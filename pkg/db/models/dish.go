package models

import (
	"time"

	"github.com/smartdine/smartdine-backend/pkg/enums"
	"github.com/smartdine/smartdine-backend/pkg/money"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

// Category groups dishes on the menu.
type Category struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string `gorm:"column:name;size:50;not null"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0"`
}

// Dish is a sellable menu entry. SalesCount is mutated only by the order state
// machine on payment; RatingAvg/RatingCount only by the review ledger.
type Dish struct {
	ID          int64            `gorm:"column:id;primaryKey;autoIncrement"`
	CategoryID  *int64           `gorm:"column:category_id;index"`
	Name        string           `gorm:"column:name;size:100;not null"`
	Description *string          `gorm:"column:description"`
	PriceCents  money.Cents      `gorm:"column:price_cents;not null"`
	ImageURL    *string          `gorm:"column:image_url;size:255"`
	Status      enums.DishStatus `gorm:"column:status;size:20;not null;default:'on_sale'"`
	Meta        types.DishMeta   `gorm:"column:meta;type:jsonb;serializer:json"`
	SalesCount  int64            `gorm:"column:sales_count;not null;default:0"`
	RatingAvg   float64          `gorm:"column:rating_avg;type:decimal(3,1);not null;default:5.0"`
	RatingCount int64            `gorm:"column:rating_count;not null;default:0"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// DishSpec is one named customization axis of a dish with its ordered options.
// Read-only from the order engine's perspective.
type DishSpec struct {
	ID      int64             `gorm:"column:id;primaryKey;autoIncrement"`
	DishID  int64             `gorm:"column:dish_id;not null;index"`
	Name    string            `gorm:"column:name;size:50;not null"`
	Options types.SpecOptions `gorm:"column:options;type:jsonb;serializer:json;not null"`
}
