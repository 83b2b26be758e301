package services

import (
	"fmt"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/repositories"
)

// CartService handles business logic for the per-user cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Get returns all cart lines for a user with their products.
func (s *CartService) Get(userID string) ([]models.CartItem, error) {
	return s.cartRepo.GetByUser(userID)
}

// Add puts a product into the cart. Adding an already-present product
// increments its quantity instead of creating a second line.
func (s *CartService) Add(userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, err
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.Upsert(item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetQuantity overwrites the quantity of an existing cart line.
func (s *CartService) SetQuantity(userID, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return s.cartRepo.SetQuantity(userID, productID, quantity)
}

// Remove deletes one cart line.
func (s *CartService) Remove(userID, productID string) error {
	return s.cartRepo.Remove(userID, productID)
}

// Clear empties the user's cart.
func (s *CartService) Clear(userID string) error {
	return s.cartRepo.Clear(userID)
}
