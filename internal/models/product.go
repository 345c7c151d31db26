package models

import "time"

// Product represents a stock item in a user's store. Every product belongs
// to exactly one owner and is invisible to everyone else.
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Price     float64   `json:"price" validate:"required,gt=0"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	OwnerID   string    `json:"owner" gorm:"index;type:varchar(36)" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductUpdate is a partial update to a product. Nil fields are left
// untouched; set fields are validated with the same rules as creation.
type ProductUpdate struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

// Empty reports whether the update carries no fields at all.
func (p ProductUpdate) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Quantity == nil
}
