package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"donation_platform/internal/services"
)

const processDueLockKey = "lock:process_due"

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Runs the recurring-payment batch once. Schedule it with cron.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := services.InitDB(databaseURL, getEnv("DB_LOG_LEVEL", "warn"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recurring := services.NewRecurringPaymentService(db)
	run := func() error {
		_, err := recurring.ProcessDue(ctx, time.Now())
		return err
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		if err := run(); err != nil {
			log.Fatalf("Recurring payment batch finished with errors: %v", err)
		}
		return
	}

	cache, err := services.NewRedisCache(redisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()

	acquired, err := cache.WithLock(ctx, processDueLockKey, 30*time.Minute, run)
	if err != nil {
		log.Fatalf("Recurring payment batch finished with errors: %v", err)
	}
	if !acquired {
		log.Println("Another recurring payment batch is running, skipping")
	}
}
