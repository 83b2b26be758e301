package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/config"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/handlers"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/middleware"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/repositories"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/services"
)

// noopMailer satisfies services.Mailer; the tests read issued tokens
// straight from the database instead of parsing mail.
type noopMailer struct{}

func (noopMailer) Send(to, subject, body string) error { return nil }

// setupApp builds a Fiber app backed by an in-memory sqlite database,
// wired the same way main does it.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.ActionToken{},
	)
	assert.NoError(t, err)

	cfg := config.Config{
		JWTSecret:      "test_jwt_secret",
		PublicBaseURL:  "http://localhost:8080",
		ResetTokenTTL:  30 * time.Minute,
		VerifyTokenTTL: 24 * time.Hour,
	}

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	tokenRepo := repositories.NewGORMTokenRepository(db)

	tokenService := services.NewTokenService(tokenRepo, userRepo, noopMailer{}, cfg)
	authService := services.NewAuthService(userRepo, tokenService, cfg.JWTSecret)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, cartRepo, nil)

	authHandler := handlers.NewAuthHandler(authService, tokenService)
	passwordHandler := handlers.NewPasswordHandler(tokenService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	passwordHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)

	userRoutes := apiV1.Group("",
		middleware.AuthRequired(authService),
		middleware.RoleRequired(models.RoleUser, models.RoleAdmin),
	)
	cartHandler.RegisterRoutes(userRoutes)
	orderHandler.RegisterRoutes(userRoutes)

	adminRoutes := apiV1.Group("/admin",
		middleware.AuthRequired(authService),
		middleware.RoleRequired(models.RoleAdmin),
	)
	productHandler.RegisterAdminRoutes(adminRoutes)
	orderHandler.RegisterAdminRoutes(adminRoutes)

	return app, db
}

// seedAdmin inserts an admin account directly; there is no self-service
// path to the admin role.
func seedAdmin(t *testing.T, db *gorm.DB, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NoError(t, err)
	assert.NoError(t, repositories.NewGORMUserRepository(db).Create(&models.User{
		Name:     "Admin",
		Email:    email,
		Password: string(hash),
		Role:     models.RoleAdmin,
	}))
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1) // -1 for no timeout
	assert.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func TestSignupVerificationAndOrderFlow(t *testing.T) {
	app, db := setupApp(t)
	seedAdmin(t, db, "admin@example.com", "adminpass")

	// Register a customer.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Wendy",
		"email":    "wendy@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate registration conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Wendy Again",
		"email":    "wendy@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// An unverified account can log in but is blocked from the shop.
	unverifiedToken := login(t, app, "wendy@example.com", "password123")
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/cart/", unverifiedToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Verify via the emailed link (token read from the store).
	var actionToken models.ActionToken
	assert.NoError(t, db.First(&actionToken, "purpose = ?", models.PurposeVerify).Error)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/auth/verify?token="+actionToken.Token, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Fresh session carries the promoted role.
	token := login(t, app, "wendy@example.com", "password123")

	// Admin stocks the menu.
	adminToken := login(t, app, "admin@example.com", "adminpass")
	resp, product := doJSON(t, app, http.MethodPost, "/api/v1/admin/products/", adminToken, map[string]interface{}{
		"name":        "Espresso",
		"description": "Double shot",
		"price_cents": 12000,
		"category":    "coffee",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	productID, _ := product["id"].(string)
	assert.NotEmpty(t, productID)

	// Customers cannot reach the admin surface.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/products/", token, map[string]interface{}{
		"name":        "Free Coffee",
		"price_cents": 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Placing an order with an empty cart is rejected.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Add to cart twice: one line, quantity 3.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": productID,
		"quantity":   1,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": productID,
		"quantity":   2,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Place the order.
	resp, order := doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(36000), order["total_cents"])
	assert.Equal(t, models.StatusPending, order["status"])
	orderID, _ := order["id"].(string)

	// Cart is now empty.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	cartResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, cartResp.StatusCode)
	var items []models.CartItem
	assert.NoError(t, json.NewDecoder(cartResp.Body).Decode(&items))
	cartResp.Body.Close()
	assert.Empty(t, items)

	// Owner cancels the pending order.
	resp, cancelled := doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", token, map[string]string{
		"reason": "ordered the wrong thing",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusCancelled, cancelled["status"])

	// Cancelling again is an illegal transition.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	app, db := setupApp(t)
	seedAdmin(t, db, "victor@example.com", "oldpassword") // any account works here

	// Unknown email gets the exact same success shape.
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/password/forgot", "", map[string]string{
		"email": "nonexistent@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/password/forgot", "", map[string]string{
		"email": "victor@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Only the real account produced a token row.
	var count int64
	db.Model(&models.ActionToken{}).Count(&count)
	assert.Equal(t, int64(1), count)
	var actionToken models.ActionToken
	assert.NoError(t, db.First(&actionToken, "purpose = ?", models.PurposeReset).Error)

	// Pre-flight validation for the reset form.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/password/validate?token="+actionToken.Token, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/password/validate?token=bogus", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Consume the token.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/password/reset", "", map[string]string{
		"token":        actionToken.Token,
		"new_password": "newpassword",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password is dead, new one works.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "victor@example.com",
		"password": "oldpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	login(t, app, "victor@example.com", "newpassword")

	// The token is single-use: replay fails.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/password/reset", "", map[string]string{
		"token":        actionToken.Token,
		"new_password": "anotherpassword",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Missing input is a 400, not a 404.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/password/reset", "", map[string]string{
		"token": "whatever",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app, _ := setupApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The catalog is public.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/products/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
