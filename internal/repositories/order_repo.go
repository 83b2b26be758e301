package repositories

import "github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	// CreateAndClearCart persists the order with its items, deletes the
	// owning user's cart lines, and bumps product sales counters, all in
	// one transaction. Either everything commits or nothing does.
	CreateAndClearCart(order *models.Order) error
	// UpdateStatus moves an order from one status to another. The write
	// only applies while the order is still in fromStatus; a concurrent
	// change surfaces as ErrConflict.
	UpdateStatus(id, fromStatus, toStatus string) error
}
