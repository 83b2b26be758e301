package models

import "gorm.io/gorm"

// Product represents a catalog entry on the café menu. Prices are stored
// in integer minor units (cents) so order totals never accumulate
// floating-point error.
type Product struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
	Category    string `json:"category" gorm:"index;type:varchar(50)" validate:"omitempty,max=50"`
	StockStatus string `json:"stock_status" gorm:"type:varchar(20);default:available"`
	SalesCount  int64  `json:"sales_count" gorm:"default:0"`
	gorm.Model         // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
