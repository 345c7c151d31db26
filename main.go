package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lapak/internal/handlers"
	"lapak/internal/identity"
	"lapak/internal/middleware"
	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/internal/services"
	"lapak/pkg/events"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=lapak port=5432 sslmode=disable")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	jwtSecret := viper.GetString("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required and must not be empty")
	}

	// --- Database ---
	// TranslateError lets repositories detect unique-index violations as
	// gorm.ErrDuplicatedKey instead of driver-specific errors.
	db, err := gorm.Open(postgres.Open(viper.GetString("DATABASE_DSN")), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Event Publisher (optional) ---
	var publisher events.Publisher
	var mqClient *events.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = events.NewClient(events.Config{URL: mqURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Println("RABBITMQ_URL not set; event publication disabled")
	}

	// --- Google Identity Verifier (optional) ---
	var verifier identity.Verifier
	if clientID := viper.GetString("GOOGLE_CLIENT_ID"); clientID != "" {
		v, err := identity.NewGoogleVerifier(context.Background(), clientID)
		if err != nil {
			log.Fatalf("Failed to initialize Google verifier: %v", err)
		}
		verifier = v
	} else {
		log.Println("GOOGLE_CLIENT_ID not set; Google login disabled")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, verifier, publisher, jwtSecret)
	productService := services.NewProductService(productRepo, publisher)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	authGate := middleware.AuthRequired(authService)

	// Public auth routes plus gated profile routes.
	authHandler.RegisterRoutes(app, authGate)
	// All product routes require authentication.
	productHandler.RegisterRoutes(app.Group("/products", authGate))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Backend running",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// --- Event Consumer ---
	// In-process audit log of emitted events. A dedicated worker could take
	// this queue over without touching the API.
	if mqClient != nil {
		if err := mqClient.Consume(func(msg amqp.Delivery) error {
			log.Printf("Event %s: %s", msg.Type, string(msg.Body))
			return nil
		}); err != nil {
			log.Printf("Failed to start event consumer: %v", err)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
