package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/satriahrh/teletale/adapters"
	"github.com/satriahrh/teletale/adapters/mongo"
	"github.com/satriahrh/teletale/domain/repositories"
	"github.com/satriahrh/teletale/internal/api"
	"github.com/satriahrh/teletale/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger level comes from config, fall back to a default logger
		logger, _ := zap.NewProduction()
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	// Initialize the document store
	var store repositories.DocumentStore
	closeStore := func(context.Context) error { return nil }

	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("Using in-memory document store, data is lost on exit")
		store = adapters.NewMemoryDocumentStore()
	default:
		client, err := mongo.NewClient(context.Background(), cfg.MongoConnectionURI(), cfg.DBName, logger)
		if err != nil {
			logger.Fatal("Failed to connect to document store", zap.Error(err))
		}
		store = mongo.NewDocumentStore(client)
		closeStore = client.Close
	}

	e := api.NewEcho(logger)
	api.InitRoutes(e, store, logger)

	go func() {
		if err := e.Start(cfg.Addr()); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server is running", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := closeStore(ctx); err != nil {
		logger.Error("Failed to close document store", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(level string) *zap.Logger {
	return buildLogger(zap.NewProductionConfig(), level)
}

// buildLogger falls back to zap's production logger when zapConfig cannot be
// built, and exits when even that fails
func buildLogger(zapConfig zap.Config, level string) *zap.Logger {

	lvl, parseErr := zapcore.ParseLevel(level)
	if parseErr != nil {
		lvl = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zapConfig.Build()
	if err != nil {
		logger, fallbackErr := zap.NewProduction()
		if fallbackErr != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", errors.Join(err, fallbackErr))
			os.Exit(1)
		}
		logger.Warn("Failed to build configured logger, using production defaults", zap.Error(err))
		return logger
	}
	if parseErr != nil {
		logger.Warn("Unknown LOG_LEVEL, using info", zap.String("level", level))
	}
	return logger
}
