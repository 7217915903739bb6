package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mairesult/config"
	"mairesult/internal/ingest"
	"mairesult/internal/server"
	"mairesult/internal/store"
	"mairesult/logger"
	"mairesult/services/cache"
	"mairesult/services/publisher"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("db_file", cfg.DBFile).
		Str("listen_addr", cfg.ListenAddr).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services := initializeServices(ctx, &cfg)
	defer services.Cleanup()

	// Wire the store, ingester and HTTP server
	st := store.NewFileStore(cfg.DBFile)
	ing := ingest.NewIngester(st, services.Publisher, services.Cache, server.ViewCacheKey)
	srv := server.New(cfg, st, ing, services.Cache)

	// Start the server in a goroutine
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Listen()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("Server exited with error")
		} else {
			log.Info().Msg("Server exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	if err := srv.Shutdown(5 * time.Second); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// Services holds the optional external services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes the optional cache and publisher.
// Both are disabled when their address is not configured.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services
}
