package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ricardolopes/holdings-backend/internal/adapter/httpapi"
	"github.com/ricardolopes/holdings-backend/internal/adapter/repository/postgres"
	"github.com/ricardolopes/holdings-backend/internal/config"
	"github.com/ricardolopes/holdings-backend/internal/logger"
	"github.com/ricardolopes/holdings-backend/internal/usecase/ledger"
	"github.com/ricardolopes/holdings-backend/internal/usecase/valuation"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults + env overrides when empty)")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.LoadWithEnvOverrides(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// 2. Setup database and repositories
	db, err := postgres.NewDB(cfg.Database.ConnString())
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	instrumentRepo := postgres.NewInstrumentRepository(db)
	eventRepo := postgres.NewTradeEventRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)
	priceRepo := postgres.NewPriceRepository(db)

	// 3. Initialize services (use cases)
	ledgerService := ledger.NewService(instrumentRepo, eventRepo, snapshotRepo)
	valuationService := valuation.NewService(instrumentRepo, eventRepo, snapshotRepo)

	// 4. Start HTTP server with bearer-token auth
	apiServer := httpapi.NewServer(instrumentRepo, eventRepo, priceRepo, ledgerService, valuationService, zlog)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: httpapi.Auth(cfg.Server.APIToken, apiServer),
	}

	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}()

	waitForShutdown(httpServer, zlog)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server, zlog *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	zlog.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
	zlog.Info("http server stopped")
}
