package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcnelson/cidr-group-central/internal/api"
	"github.com/bcnelson/cidr-group-central/internal/app"
	"github.com/bcnelson/cidr-group-central/internal/config"
	"github.com/bcnelson/cidr-group-central/internal/logging"
	"github.com/charmbracelet/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "err", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "err", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		log.Fatal("Invalid logging configuration", "err", err)
	}

	// Initialize storage and registry
	reg, store, err := app.NewRegistry(cfg.Store)
	if err != nil {
		logger.Fatal("Failed to initialize registry", "err", err)
	}
	defer store.Close()

	if !cfg.AuthEnabled() {
		logger.Warn("API_KEY is not set; /api/v1 is unauthenticated")
	}

	// Create router
	router := api.NewRouter(reg, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("Starting CIDR group service", "addr", "http://"+cfg.Server.Addr(), "store", cfg.Store.Backend)

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", "err", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}

	logger.Info("Server stopped")
}
