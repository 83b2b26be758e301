package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/repositories"
)

// OrderEventPublisher publishes order lifecycle events to the message
// broker. Implemented by the RabbitMQ client; nil or failing publishers
// never fail the order operation itself.
type OrderEventPublisher interface {
	PublishOrderEvent(event string, payload map[string]interface{}) error
}

// transitions enumerates the legal (from, to) status pairs. Every status
// mutation, user-facing or admin, is checked against this table.
var transitions = map[string]map[string]bool{
	models.StatusPending:    {models.StatusProcessing: true, models.StatusCancelled: true},
	models.StatusProcessing: {models.StatusShipped: true, models.StatusCancelled: true},
	models.StatusShipped:    {models.StatusDelivered: true},
}

func transitionAllowed(from, to string) bool {
	return transitions[from][to]
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	cartRepo  repositories.CartRepository
	publisher OrderEventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, cartRepo repositories.CartRepository, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		publisher: publisher,
	}
}

// GetAllOrders retrieves all orders (admin view).
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrdersByUser retrieves a user's order history.
func (s *OrderService) GetOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// PlaceOrder converts the user's cart into an order. Every line is priced
// at the product's current catalog price and that price is frozen into
// the order item, so later catalog changes never alter the order. Order
// creation, item snapshots, and cart clearing commit as one transaction.
func (s *OrderService) PlaceOrder(userID string) (*models.Order, error) {
	items, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var totalCents int64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, models.OrderItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceCents: item.Product.PriceCents, // Price at the time of order creation
		})
		totalCents += item.Product.PriceCents * int64(item.Quantity)
	}

	order := &models.Order{
		UserID:     userID,
		Items:      orderItems,
		TotalCents: totalCents,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.orderRepo.CreateAndClearCart(order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.publish("order.created", map[string]interface{}{
		"orderID":    order.ID,
		"userID":     order.UserID,
		"status":     order.Status,
		"totalCents": order.TotalCents,
	})

	return order, nil
}

// CancelOrder cancels an order on behalf of its owner. Only pending or
// processing orders can be cancelled. The reason is recorded in the logs
// for audit, not on the order itself.
func (s *OrderService) CancelOrder(orderID, requestingUserID, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requestingUserID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotOrderOwner)
	}
	if !transitionAllowed(order.Status, models.StatusCancelled) {
		return nil, fmt.Errorf("cannot cancel order in status %s: %w", order.Status, ErrInvalidTransition)
	}

	if err := s.orderRepo.UpdateStatus(orderID, order.Status, models.StatusCancelled); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, fmt.Errorf("order %s changed while cancelling: %w", orderID, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}
	order.Status = models.StatusCancelled
	log.Printf("Order %s cancelled by user %s, reason: %q", orderID, requestingUserID, reason)

	s.publish("order.cancelled", map[string]interface{}{
		"orderID": orderID,
		"userID":  requestingUserID,
		"reason":  reason,
	})

	return order, nil
}

// SetOrderStatus updates an order's status through the transition table.
// With force set, the table is bypassed; the override is logged so admin
// corrections leave an audit trail.
func (s *OrderService) SetOrderStatus(orderID, status string, force bool) error {
	validStatuses := map[string]bool{
		models.StatusPending:    true,
		models.StatusProcessing: true,
		models.StatusShipped:    true,
		models.StatusDelivered:  true,
		models.StatusCancelled:  true,
	}
	if !validStatuses[status] {
		return fmt.Errorf("invalid order status %q: %w", status, ErrInvalidTransition)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if !transitionAllowed(order.Status, status) {
		if !force {
			return fmt.Errorf("transition %s -> %s: %w", order.Status, status, ErrInvalidTransition)
		}
		log.Printf("ADMIN OVERRIDE: order %s forced from %s to %s", orderID, order.Status, status)
	}

	if err := s.orderRepo.UpdateStatus(orderID, order.Status, status); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return fmt.Errorf("order %s changed while updating: %w", orderID, ErrInvalidTransition)
		}
		return fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}

	s.publish("order.status_changed", map[string]interface{}{
		"orderID": orderID,
		"from":    order.Status,
		"to":      status,
	})
	return nil
}

// publish sends an order event to the broker, best-effort.
func (s *OrderService) publish(event string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", event, err)
	}
}

// IsNotFound reports whether err stems from a missing record, exposed so
// handlers do not import the repositories package for one check.
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
