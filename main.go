package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/config"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/handlers"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/middleware"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/repositories"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/services"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Database ---
	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.ActionToken{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ ---
	// The broker is optional in development: order operations publish
	// best-effort and tolerate a nil client.
	var mqClient *rabbitmq.Client
	mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Printf("Warning: RabbitMQ unavailable, order events disabled: %v", err)
		mqClient = nil
	} else {
		defer mqClient.Close()
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	tokenRepo := repositories.NewGORMTokenRepository(db)

	// --- Services ---
	mailer := services.NewSMTPMailer(cfg.SMTP)
	tokenService := services.NewTokenService(tokenRepo, userRepo, mailer, cfg)
	authService := services.NewAuthService(userRepo, tokenService, cfg.JWTSecret)
	productService := services.NewProductService(productRepo)
	userService := services.NewUserService(userRepo)
	cartService := services.NewCartService(cartRepo, productRepo)

	var publisher services.OrderEventPublisher
	if mqClient != nil {
		publisher = mqClient
	}
	orderService := services.NewOrderService(orderRepo, cartRepo, publisher)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, tokenService)
	passwordHandler := handlers.NewPasswordHandler(tokenService)
	productHandler := handlers.NewProductHandler(productService)
	userHandler := handlers.NewUserHandler(userService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(logger.New()) // Request logger

	apiV1 := app.Group("/api/v1")

	// Public routes: auth, password reset, catalog browsing.
	authHandler.RegisterRoutes(apiV1)
	passwordHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)

	// Verified users: cart and orders.
	userRoutes := apiV1.Group("",
		middleware.AuthRequired(authService),
		middleware.RoleRequired(models.RoleUser, models.RoleAdmin),
	)
	cartHandler.RegisterRoutes(userRoutes)
	orderHandler.RegisterRoutes(userRoutes)
	userHandler.RegisterRoutes(userRoutes)

	// Admin back-office.
	adminRoutes := apiV1.Group("/admin",
		middleware.AuthRequired(authService),
		middleware.RoleRequired(models.RoleAdmin),
	)
	productHandler.RegisterAdminRoutes(adminRoutes)
	orderHandler.RegisterAdminRoutes(adminRoutes)
	userHandler.RegisterAdminRoutes(adminRoutes)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Order Events Consumer ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received order event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				// Fulfilment hook: kitchen display, receipt mail, etc.
				return nil // Return nil to acknowledge
			}
			if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openDatabase connects to postgres when DATABASE_URL is set, otherwise
// to a local sqlite file.
func openDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
}
