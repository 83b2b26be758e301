package models

import "time"

// CartItem is one line of a user's cart: at most one row exists per
// (user, product) pair; adding the same product again increments Quantity.
// Cart rows are deleted outright on removal and order conversion, never
// soft-deleted, so the unique index only ever sees live lines.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"index:idx_cart_user_product,unique;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"index:idx_cart_user_product,unique;type:varchar(36)"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	Product   Product   `json:"product" gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
