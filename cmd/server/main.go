package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"donation_platform/internal/handlers"
	authMiddleware "donation_platform/internal/middleware"
	"donation_platform/internal/services"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// newDocumentStore picks the upload backend from UPLOAD_BACKEND
func newDocumentStore(ctx context.Context) (services.DocumentStore, error) {
	switch getEnv("UPLOAD_BACKEND", "local") {
	case "s3":
		return services.NewS3Store(ctx, os.Getenv("S3_BUCKET"), os.Getenv("AWS_REGION"))
	default:
		return services.NewLocalStore(getEnv("UPLOAD_DIR", "uploads"), getEnv("UPLOAD_BASE_URL", "/uploads"))
	}
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	jwtExpiration, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "24h"))
	if err != nil {
		log.Fatalf("Invalid JWT_EXPIRATION: %v", err)
	}

	// Initialize Database
	db, err := services.InitDB(databaseURL, getEnv("DB_LOG_LEVEL", "warn"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional: without it logout cannot revoke tokens
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis connection failed: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	} else {
		log.Println("Warning: REDIS_URL not set, token revocation disabled")
	}

	store, err := newDocumentStore(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize document storage: %v", err)
	}

	authService := services.NewAuthService(db, cache, jwtSecret, jwtExpiration)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(getEnv("MAX_UPLOAD_SIZE", "20M")))

	// Locally stored documents
	if _, ok := store.(*services.LocalStore); ok {
		e.Static(getEnv("UPLOAD_BASE_URL", "/uploads"), getEnv("UPLOAD_DIR", "uploads"))
	}

	handlers.RegisterRoutes(e.Group("/api"), handlers.Services{
		Auth:         authService,
		Profiles:     services.NewProfileService(db, authService),
		Charities:    services.NewCharityService(db, store),
		Fundraisings: services.NewFundraisingService(db),
		Donations:    services.NewDonationService(db),
		Recurring:    services.NewRecurringPaymentService(db),
		Reports:      services.NewReportService(db, store),
	})

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Start server
	port := getEnv("PORT", "8080")
	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
