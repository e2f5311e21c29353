package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandonvio/brightthread/internal/config"
	"github.com/brandonvio/brightthread/internal/database"
	"github.com/brandonvio/brightthread/internal/events"
	"github.com/brandonvio/brightthread/internal/handler"
	"github.com/brandonvio/brightthread/internal/policydoc"
	"github.com/brandonvio/brightthread/internal/repository"
	"github.com/brandonvio/brightthread/internal/router"
	"github.com/brandonvio/brightthread/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting brightthread order API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run schema migrations before opening the pool
	if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	inventoryRepo := repository.NewInventoryRepository(pool, logger)
	executionRepo := repository.NewExecutionRepository(pool, logger)

	// Initialize policy document loader with S3 and local fallback
	fileLoader := policydoc.NewFileLoader(logger)
	var docLoader policydoc.Loader = fileLoader

	if cfg.S3.Enabled {
		s3Loader, err := policydoc.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			docLoader = policydoc.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, true, logger)
		}
	} else {
		logger.Info().Msg("using local file system for the policy document (S3 disabled)")
	}

	doc, err := docLoader.Load(ctx, cfg.PolicyDoc.Path)
	if err != nil {
		return fmt.Errorf("failed to load policy document: %w", err)
	}

	// Initialize status event publisher
	var publisher service.StatusPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Buffer, logger)
		kafkaPublisher.Start(ctx)
		defer func() {
			cancel()
			kafkaPublisher.WaitClosed()
		}()
		publisher = kafkaPublisher
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("status event publishing enabled")
	} else {
		logger.Info().Msg("status event publishing disabled")
	}

	// Initialize services
	orderService := service.NewOrderService(orderRepo, inventoryRepo, publisher, logger)
	changeService := service.NewChangeService(orderRepo, inventoryRepo, executionRepo, publisher, logger)
	inventoryService := service.NewInventoryService(inventoryRepo, logger)

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService, logger)
	changeHandler := handler.NewChangeHandler(changeService, logger)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, logger)
	policyHandler := handler.NewPolicyHandler(doc, logger)

	// Initialize router
	mux := router.New(orderHandler, changeHandler, inventoryHandler, policyHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
