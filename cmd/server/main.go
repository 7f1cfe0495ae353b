package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/internal/config"
	"github.com/diewo77/quincaillerie/internal/db"
	"github.com/diewo77/quincaillerie/internal/events"
	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/internal/policy"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Load configuration from environment
	cfg := config.Load()
	if cfg.Auth.Secret != "" {
		auth.SetSecret(cfg.Auth.Secret)
	} else if !cfg.App.Dev {
		log.Fatal("AUTH_SECRET must be set outside development")
	}

	dbConn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Handle migrate-only flag
	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg.Database, cfg.App); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	// Handle seed-only flag
	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.App.SeedPassword); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding completed successfully")
		return
	}

	// Run migrations on startup if enabled (AutoMigrate in dev)
	if cfg.App.Migrations || cfg.App.Dev {
		if err := db.Migrate(dbConn, cfg.Database, cfg.App); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed")
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn, cfg.App.SeedPassword); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	// Tokens of deleted or deactivated accounts are rejected
	auth.SetUserVerifier(activeUserVerifier(dbConn))

	routerCfg := policy.NewRouterConfig(dbConn, cfg.Auth.TokenTTL)
	appHandler := NewApp(dbConn, routerCfg)

	publisher, err := newPublisher(cfg.Kafka)
	if err != nil {
		log.Fatalf("Event publisher: %v", err)
	}
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		events.NewRelay(dbConn, publisher, cfg.Relay.Interval, cfg.Relay.BatchSize).Run(relayCtx)
	}()

	// Create server with config timeouts
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s (dev=%v, db=%s)", cfg.Server.Port, cfg.App.Dev, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	stopRelay()
	<-relayDone
	if err := publisher.Close(); err != nil {
		log.Printf("Error closing event publisher: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// newPublisher uses Kafka when brokers are configured and logs events otherwise.
func newPublisher(cfg config.KafkaConfig) (events.Publisher, error) {
	if !cfg.Enabled() {
		log.Println("KAFKA_BROKERS not set; domain events are logged only")
		return events.NewLogPublisher(log.Default()), nil
	}
	p, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:      strings.Join(cfg.Brokers, ","),
		Topic:        cfg.Topic,
		FlushTimeout: cfg.FlushTimeout,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Publishing domain events to Kafka topic %s", cfg.Topic)
	return p, nil
}

func activeUserVerifier(dbConn *gorm.DB) auth.UserVerifier {
	return func(ctx context.Context, uid uint) bool {
		var count int64
		dbConn.WithContext(ctx).Model(&models.User{}).Where("id = ? AND active = ?", uid, true).Count(&count)
		return count > 0
	}
}
