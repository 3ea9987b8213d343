package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Mohsen-it/beauty-store-sub000/internal/devserver"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string // empty means in-memory carts
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// seedCatalog is the cosmetics catalog the dev backend sells.
func seedCatalog() []devserver.Product {
	return []devserver.Product{
		{ID: 1, Name: "Rose Glow Serum", Price: decimal.RequireFromString("34.50"), Stock: 25},
		{ID: 2, Name: "Velvet Matte Lipstick", Price: decimal.RequireFromString("19.90"), Stock: 40},
		{ID: 3, Name: "Hydra Night Cream", Price: decimal.RequireFromString("48.00"), Stock: 12},
		{ID: 4, Name: "Citrus Cleansing Foam", Price: decimal.RequireFromString("14.25"), Stock: 60},
		{ID: 5, Name: "Silk Finish Foundation", Price: decimal.RequireFromString("29.75"), Stock: 5},
	}
}

func main() {
	cfg := loadConfig()

	var store devserver.CartStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		store = devserver.NewRedisStore(client)
		log.Printf("using redis cart store at %s", cfg.RedisAddr)
	} else {
		store = devserver.NewMemoryStore()
		log.Println("using in-memory cart store")
	}

	backend := devserver.New(store, seedCatalog())

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Mount("/", backend.Router())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront dev backend starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
