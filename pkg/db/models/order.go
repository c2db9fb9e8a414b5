package models

import (
	"time"

	"github.com/smartdine/smartdine-backend/pkg/enums"
	"github.com/smartdine/smartdine-backend/pkg/money"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

// Order is an immutable priced snapshot once created; only Status moves, and
// only through the state machine.
type Order struct {
	ID              int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          int64                  `gorm:"column:user_id;not null;index"`
	AddressID       int64                  `gorm:"column:address_id;not null"`
	TotalCents      money.Cents            `gorm:"column:total_cents;not null"`
	Status          enums.OrderStatus      `gorm:"column:status;size:20;not null;default:'pending'"`
	Context         types.OrderContext     `gorm:"column:context;type:jsonb;serializer:json"`
	AddressSnapshot *types.AddressSnapshot `gorm:"column:address_snapshot;type:jsonb;serializer:json"`
	Note            *string                `gorm:"column:note;size:200"`
	Items           []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots one order line. Name and unit price are copied from the
// dish at creation time and never change afterwards.
type OrderItem struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID         int64           `gorm:"column:order_id;not null;index"`
	DishID          int64           `gorm:"column:dish_id;not null"`
	DishName        string          `gorm:"column:dish_name;size:100;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPriceCents  money.Cents     `gorm:"column:unit_price_cents;not null"`
	SelectedOptions types.Selection `gorm:"column:selected_options;type:jsonb;serializer:json"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
