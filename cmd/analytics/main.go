package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/internal/analytics"
	"github.com/arbio/commerce-platform/internal/analytics/aggregator"
	"github.com/arbio/commerce-platform/internal/analytics/gateway"
	"github.com/arbio/commerce-platform/internal/analytics/repository"
	"github.com/arbio/commerce-platform/internal/config"
	"github.com/arbio/commerce-platform/internal/database"
	"github.com/arbio/commerce-platform/internal/server"
	"github.com/arbio/commerce-platform/pkg/logger"
)

const defaultPort = 3002

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load(defaultPort)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// The analytics service reads the schema the orders service owns and
	// migrates; no migration here.
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	repo := repository.NewGormRepository(db, zapLogger)
	agg := aggregator.New(repo)
	peer := gateway.NewClient(gateway.Config{
		BaseURL: cfg.Peer.URL,
		Timeout: cfg.Peer.Timeout,
	}, zapLogger)
	svc := analytics.NewService(zapLogger, agg, peer, cfg.Peer.URL)

	if err := server.RegisterValidators(); err != nil {
		zapLogger.Fatal("failed to register validators", zap.Error(err))
	}
	srv := server.NewAnalyticsServer(zapLogger, svc)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		zapLogger.Info("analytics service listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}
}
