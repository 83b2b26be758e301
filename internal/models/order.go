package models

import "time"

// Order statuses. Transitions only move forward, except cancellation,
// which is allowed from pending or processing.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// OrderItem is a frozen copy of one cart line at purchase time. PriceCents
// is the product's price when the order was placed and never changes
// afterwards, regardless of later catalog updates.
type OrderItem struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID    string `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID  string `json:"product_id" gorm:"type:varchar(36)"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"` // Price at the time of order
}

// Order represents a completed purchase.
type Order struct {
	ID         string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string      `json:"user_id" gorm:"index;type:varchar(36)"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	TotalCents int64       `json:"total_cents"`
	Status     string      `json:"status" gorm:"type:varchar(20)"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
