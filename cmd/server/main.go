package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"event-checkout-platform/internal/config"
	"event-checkout-platform/internal/database"
	"event-checkout-platform/internal/repositories"
	"event-checkout-platform/internal/server"
	"event-checkout-platform/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run pending migrations on startup
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	orderRepo := repositories.NewOrderRepository(db.DB)
	intentRepo := repositories.NewPaymentIntentRepository(db.DB)
	couponRepo := repositories.NewCouponRepository(db.DB)

	// Inventory holds need Redis; without it reservations are unconstrained
	var holdStore services.HoldStore = services.NoopHolds{}
	var inventoryHolds *services.InventoryHolds
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
		}
		inventoryHolds = services.NewInventoryHolds(rdb)
		holdStore = inventoryHolds
		log.Printf("Inventory holds enabled (redis %s)", cfg.Redis.Addr)
	} else {
		log.Println("REDIS_ADDR not set, inventory holds disabled")
	}

	// Lifecycle events go to RabbitMQ when configured
	var publisher services.EventPublisher = services.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := services.NewAMQPPublisher(cfg.AMQP.URL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		log.Println("Order lifecycle events enabled")
	} else {
		log.Println("RABBITMQ_URL not set, lifecycle events disabled")
	}

	// Payment provider: real client when configured, mock otherwise
	var provider services.PaymentProvider
	if cfg.Provider.BaseURL != "" {
		provider = services.NewProviderService(services.ProviderConfig{
			BaseURL:     cfg.Provider.BaseURL,
			APIKey:      cfg.Provider.APIKey,
			Environment: cfg.Provider.Environment,
		})
	} else {
		log.Println("PAYMENT_PROVIDER_URL not set, using mock provider")
		provider = &services.MockPaymentProvider{}
	}

	// Profile autosave is best effort and optional
	var autosaver *services.ProfileAutosaver
	if cfg.Account.BaseURL != "" {
		accounts := services.NewAccountService(services.AccountServiceConfig{
			BaseURL: cfg.Account.BaseURL,
			APIKey:  cfg.Account.APIKey,
		})
		autosaver = services.NewProfileAutosaver(accounts)
	} else {
		log.Println("ACCOUNT_SERVICE_URL not set, profile autosave disabled")
	}

	// Services
	couponService := services.NewCouponService(couponRepo)
	checkoutService := services.NewCheckoutService(
		orderRepo,
		intentRepo,
		couponService,
		provider,
		holdStore,
		publisher,
		autosaver,
		cfg.Reservation.Window,
	)
	intentService := services.NewPaymentIntentService(intentRepo, orderRepo, provider)
	registry := services.NewSessionRegistry()

	// Background expiry sweep
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := services.NewExpirySweeper(checkoutService, orderRepo, cfg.Reservation.SweepInterval)
	go sweeper.Run(ctx)

	router := server.NewRouter(server.Dependencies{
		Config:   cfg,
		DB:       db,
		Checkout: checkoutService,
		Intents:  intentService,
		Coupons:  couponService,
		Registry: registry,
		Holds:    inventoryHolds,
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on %s (env: %s)", addr, cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	registry.TeardownAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown failed: %v", err)
	}
}
