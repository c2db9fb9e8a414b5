package models

import (
	"time"

	"github.com/smartdine/smartdine-backend/pkg/types"
)

// Cart is the single mutable cart of a user. The unique index on user_id is
// the race guard for concurrent first access.
type Cart struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_carts_user"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem is one mergeable cart line. SpecKey stores the canonical encoding
// of SelectedOptions; (cart_id, dish_id, spec_key) identifies a line.
type CartItem struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CartID          int64           `gorm:"column:cart_id;not null;uniqueIndex:idx_cart_items_merge"`
	DishID          int64           `gorm:"column:dish_id;not null;uniqueIndex:idx_cart_items_merge"`
	Quantity        int             `gorm:"column:quantity;not null"`
	SelectedOptions types.Selection `gorm:"column:selected_options;type:jsonb;serializer:json"`
	SpecKey         string          `gorm:"column:spec_key;size:512;not null;uniqueIndex:idx_cart_items_merge"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
