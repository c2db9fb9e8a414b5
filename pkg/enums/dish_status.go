package enums

import "fmt"

// DishStatus describes the sellability of a dish.
type DishStatus string

const (
	DishStatusOnSale  DishStatus = "on_sale"
	DishStatusOffSale DishStatus = "off_sale"
	DishStatusSoldOut DishStatus = "sold_out"
)

var validDishStatuses = []DishStatus{
	DishStatusOnSale,
	DishStatusOffSale,
	DishStatusSoldOut,
}

// String implements fmt.Stringer.
func (s DishStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DishStatus.
func (s DishStatus) IsValid() bool {
	for _, candidate := range validDishStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Sellable reports whether the dish may be added to carts and orders.
func (s DishStatus) Sellable() bool {
	return s == DishStatusOnSale
}

// ParseDishStatus converts raw input into a DishStatus.
func ParseDishStatus(value string) (DishStatus, error) {
	for _, candidate := range validDishStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dish status %q", value)
}
