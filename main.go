package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/h2brasil/delivery-backend/database"
	"github.com/h2brasil/delivery-backend/internal/catalog"
	"github.com/h2brasil/delivery-backend/internal/jobs"
	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/realtime"
	"github.com/h2brasil/delivery-backend/internal/routes"
	"github.com/h2brasil/delivery-backend/internal/services"
	"github.com/h2brasil/delivery-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.DeliveryHistoryRecord{},
			&models.DriverAccount{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}
	storage.SetStore(store)

	// Connect to the realtime store. Without it the application cannot
	// function at all, so a failed connection is fatal.
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatalf("Failed to connect to realtime store at %s: %v", redisAddr, err)
	}
	cancel()
	channel := realtime.NewRedisChannel(rdb)
	log.Printf("✅ Realtime store connected (%s)", redisAddr)

	// Session secrets
	jwtSecret := os.Getenv("SESSION_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("SESSION_JWT_SECRET is required")
	}
	adminSecret := os.Getenv("ADMIN_SECRET")
	if adminSecret == "" {
		log.Println("⚠️  ADMIN_SECRET not set - admin login disabled")
	}

	// Generation service credential is a fatal precondition for route
	// optimization only; everything else keeps working without it.
	generation, err := services.NewGenerationClientFromEnv()
	if err != nil {
		log.Println("⚠️  GEMINI_API_KEY not set - route optimization will be unavailable")
	}

	// Ops alerting is optional
	notifier, err := services.NewNotifierService()
	if err != nil {
		log.Println("⚠️  Twilio not configured - ops alerts disabled")
		notifier = nil
	} else {
		log.Println("✅ Twilio notifier initialized")
	}

	// Initialize all services
	sessionManager := services.NewSessionManager(store, channel, []byte(jwtSecret), adminSecret)
	optimizer := services.NewOptimizerService(generation, sessionManager)
	progress := services.NewProgressService(store, channel, sessionManager)
	tracker := services.NewTrackerService(channel, sessionManager)

	// Start the presence sweeper and daily summary
	presenceJob := jobs.NewPresenceJob(store, channel, notifier)
	presenceJob.Start()

	log.Println("✅ All services initialized and scheduled jobs started")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "H2 Delivery Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Service banner with dependency status
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     "H2 Delivery Backend",
			"version":     "1.0.0",
			"status":      "healthy",
			"environment": getEnvironment(),
			"storage":     getStorageType(),
			"points":      len(catalog.All()),
			"services": fiber.Map{
				"optimization": generation != nil,
				"alerts":       notifier != nil,
				"sessions":     len(sessionManager.GetActiveSessions()),
			},
		})
	})

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		Store:     store,
		Channel:   channel,
		Sessions:  sessionManager,
		Optimizer: optimizer,
		Progress:  progress,
		Tracker:   tracker,
	})

	// Get port from environment or use default
	port := getEnv("PORT", "8080")

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping presence jobs...")
		presenceJob.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚚 H2 Delivery Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Printf("🗺️  Delivery points: %d", len(catalog.All()))
	log.Printf("🤖 Route optimization: %s", enabledStatus(generation != nil))
	log.Printf("📱 Ops alerts: %s", enabledStatus(notifier != nil))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func enabledStatus(enabled bool) string {
	if enabled {
		return "Enabled"
	}
	return "Not configured"
}
