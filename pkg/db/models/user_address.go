package models

import "time"

// UserAddress is owned by the identity/address collaborator; this service only
// reads it to validate ownership at order creation.
type UserAddress struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64     `gorm:"column:user_id;not null;index"`
	ContactName string    `gorm:"column:contact_name;size:50;not null"`
	Phone       string    `gorm:"column:phone;size:20;not null"`
	AddressLine string    `gorm:"column:address_line;size:255;not null"`
	IsDefault   bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
