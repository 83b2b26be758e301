package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/repositories"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/services"
)

// MockPublisher is a mock implementation of services.OrderEventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(event string, payload map[string]interface{}) error {
	args := m.Called(event, payload)
	return args.Error(0)
}

func seedProduct(t *testing.T, db *gorm.DB, name string, priceCents int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       name,
		PriceCents: priceCents,
		Category:   "coffee",
	}
	repo := repositories.NewGORMProductRepository(db)
	assert.NoError(t, repo.Create(product))
	return product
}

func newOrderService(db *gorm.DB, publisher services.OrderEventPublisher) *services.OrderService {
	return services.NewOrderService(
		repositories.NewGORMOrderRepository(db),
		repositories.NewGORMCartRepository(db),
		publisher,
	)
}

func addToCart(t *testing.T, db *gorm.DB, userID, productID string, qty int) {
	t.Helper()
	cartRepo := repositories.NewGORMCartRepository(db)
	assert.NoError(t, cartRepo.Upsert(&models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}))
}

func TestOrderService_PlaceOrderSnapshotsPricesAndClearsCart(t *testing.T) {
	db := newTestDB(t)
	publisher := new(MockPublisher)
	publisher.On("PublishOrderEvent", "order.created", mock.Anything).Return(nil).Once()
	svc := newOrderService(db, publisher)

	user := seedUser(t, db, "grace@example.com", "password123", models.RoleUser)
	espresso := seedProduct(t, db, "Espresso", 12000)
	croissant := seedProduct(t, db, "Croissant", 8500)
	addToCart(t, db, user.ID, espresso.ID, 2)
	addToCart(t, db, user.ID, croissant.ID, 1)

	order, err := svc.PlaceOrder(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2*12000+8500), order.TotalCents)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, models.StatusPending, order.Status)

	// Cart is empty afterwards.
	cartRepo := repositories.NewGORMCartRepository(db)
	items, err := cartRepo.GetByUser(user.ID)
	assert.NoError(t, err)
	assert.Empty(t, items)

	// A later catalog price change never touches the order.
	productRepo := repositories.NewGORMProductRepository(db)
	espresso.PriceCents = 99999
	assert.NoError(t, productRepo.Update(espresso))

	stored, err := svc.GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(32500), stored.TotalCents)
	for _, item := range stored.Items {
		if item.ProductID == espresso.ID {
			assert.Equal(t, int64(12000), item.PriceCents)
		}
	}

	// Sales counters moved by the sold quantities, and the catalog edit
	// above did not write the counter back from the stale struct.
	updated, err := productRepo.GetByID(espresso.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.SalesCount)

	publisher.AssertExpectations(t)
}

func TestOrderService_PlaceOrderEmptyCart(t *testing.T) {
	db := newTestDB(t)
	publisher := new(MockPublisher)
	svc := newOrderService(db, publisher)
	user := seedUser(t, db, "heidi@example.com", "password123", models.RoleUser)

	order, err := svc.PlaceOrder(user.ID)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
	assert.Nil(t, order)

	// No order row was created.
	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(0), count)
	publisher.AssertNotCalled(t, "PublishOrderEvent", mock.Anything, mock.Anything)
}

func TestOrderService_PlaceOrderSecondCallFindsEmptyCart(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db, nil) // nil publisher is tolerated

	user := seedUser(t, db, "ivan@example.com", "password123", models.RoleUser)
	latte := seedProduct(t, db, "Latte", 15000)
	addToCart(t, db, user.ID, latte.ID, 1)

	_, err := svc.PlaceOrder(user.ID)
	assert.NoError(t, err)

	_, err = svc.PlaceOrder(user.ID)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestOrderService_CancelOrderGuards(t *testing.T) {
	db := newTestDB(t)
	publisher := new(MockPublisher)
	publisher.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)
	svc := newOrderService(db, publisher)

	owner := seedUser(t, db, "judy@example.com", "password123", models.RoleUser)
	other := seedUser(t, db, "mallory@example.com", "password123", models.RoleUser)
	mocha := seedProduct(t, db, "Mocha", 16000)
	addToCart(t, db, owner.ID, mocha.ID, 1)

	order, err := svc.PlaceOrder(owner.ID)
	assert.NoError(t, err)

	// A non-owner cannot cancel, regardless of status.
	_, err = svc.CancelOrder(order.ID, other.ID, "not mine anyway")
	assert.ErrorIs(t, err, services.ErrNotOrderOwner)

	// Unknown order is NotFound.
	_, err = svc.CancelOrder("no-such-order", owner.ID, "")
	assert.True(t, services.IsNotFound(err))

	// Owner cancels a pending order.
	cancelled, err := svc.CancelOrder(order.ID, owner.ID, "changed my mind")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// A delivered order cannot be cancelled.
	addToCart(t, db, owner.ID, mocha.ID, 1)
	order2, err := svc.PlaceOrder(owner.ID)
	assert.NoError(t, err)
	assert.NoError(t, svc.SetOrderStatus(order2.ID, models.StatusProcessing, false))
	assert.NoError(t, svc.SetOrderStatus(order2.ID, models.StatusShipped, false))
	assert.NoError(t, svc.SetOrderStatus(order2.ID, models.StatusDelivered, false))

	_, err = svc.CancelOrder(order2.ID, owner.ID, "too late")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestOrderRepository_UpdateStatusIsConditional(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db, nil)
	repo := repositories.NewGORMOrderRepository(db)

	user := seedUser(t, db, "olga@example.com", "password123", models.RoleUser)
	cortado := seedProduct(t, db, "Cortado", 13000)
	addToCart(t, db, user.ID, cortado.ID, 1)
	order, err := svc.PlaceOrder(user.ID)
	assert.NoError(t, err)

	// The write only applies while the order still holds the status the
	// caller read, so of two racing mutations at most one wins.
	assert.NoError(t, repo.UpdateStatus(order.ID, models.StatusPending, models.StatusShipped))
	err = repo.UpdateStatus(order.ID, models.StatusPending, models.StatusCancelled)
	assert.ErrorIs(t, err, repositories.ErrConflict)

	stored, err := svc.GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusShipped, stored.Status)
}

func TestOrderService_SetOrderStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db, nil)

	user := seedUser(t, db, "nina@example.com", "password123", models.RoleUser)
	flatWhite := seedProduct(t, db, "Flat White", 14000)
	addToCart(t, db, user.ID, flatWhite.ID, 1)
	order, err := svc.PlaceOrder(user.ID)
	assert.NoError(t, err)

	// Legal forward transition.
	assert.NoError(t, svc.SetOrderStatus(order.ID, models.StatusProcessing, false))

	// Skipping backwards is rejected without force.
	err = svc.SetOrderStatus(order.ID, models.StatusPending, false)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	// Unknown status string is rejected outright.
	err = svc.SetOrderStatus(order.ID, "teleported", false)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	// The explicit force bypass lets an admin correct a mistake.
	assert.NoError(t, svc.SetOrderStatus(order.ID, models.StatusPending, true))
	stored, err := svc.GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}
