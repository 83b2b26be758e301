package repositories

import "github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"

// CartRepository defines the interface for cart line-item access.
type CartRepository interface {
	// GetByUser returns the user's cart lines with their products preloaded.
	GetByUser(userID string) ([]models.CartItem, error)
	// Upsert creates the (user, product) line, or increments its quantity
	// if it already exists.
	Upsert(item *models.CartItem) error
	// SetQuantity overwrites the quantity of an existing line.
	SetQuantity(userID, productID string, quantity int) error
	Remove(userID, productID string) error
	Clear(userID string) error
}
