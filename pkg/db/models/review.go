package models

import "time"

// Review rates one dish of one completed order. The unique index on
// (order_id, dish_id) is the authoritative duplicate guard.
type Review struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	OrderID   int64     `gorm:"column:order_id;not null;uniqueIndex:idx_reviews_order_dish"`
	DishID    int64     `gorm:"column:dish_id;not null;uniqueIndex:idx_reviews_order_dish"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	Tags      []string  `gorm:"column:tags;type:jsonb;serializer:json"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
