package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"garment-backend/internal/cache"
	"garment-backend/internal/config"
	"garment-backend/internal/database"
	"garment-backend/internal/db"
	h "garment-backend/internal/http"
	"garment-backend/internal/handlers"
	"garment-backend/internal/health"
	"garment-backend/internal/middleware"
	"garment-backend/internal/realtime"
	"garment-backend/internal/repositories"
	"garment-backend/internal/services"
	"garment-backend/internal/slips"
	"garment-backend/internal/storage"
	"garment-backend/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	store := flag.String("store", "", "settlement store: postgres or memory (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *store != "" {
		cfg.Store = *store
	}
	config.SetLogLevel(cfg.Log.Level)

	if err := run(cfg); err != nil {
		config.GetLogger().Fatalf("server stopped: %v", err)
	}
}

// run returns instead of exiting so deferred cleanup always happens
func run(cfg *config.Config) error {
	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		repo repositories.Store
		pool *pgxpool.Pool
	)
	switch cfg.Store {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		repo = repositories.NewMemoryStore()
	case "postgres", "":
		var err error
		if pool, err = db.Connect(ctx, cfg); err != nil {
			return err
		}
		defer pool.Close()

		// Run database migrations
		// Uses embedded migrations for standalone binary operation
		logger.Info("running database migrations")
		migrator := database.NewMigratorWithFS(pool, migrations.FS, ".")
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = migrator.RunMigrations(migrateCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		repo = repositories.NewPostgresStore(pool)
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(cfg); err != nil {
		logger.WithField("error", err.Error()).Warn("redis unavailable, caching and cross-instance locks disabled")
	} else {
		logger.Info("redis connected")
	}
	defer cache.Close()

	archive, err := storage.NewArchiver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to configure slip storage: %w", err)
	}
	signer := slips.NewSigner(cfg.Slips.SigningSecret, cfg.Slips.Issuer, time.Duration(cfg.Slips.TokenTTLHours)*time.Hour)

	hub := realtime.NewHub()
	go hub.Run(ctx)

	// Services
	employeeService := services.NewEmployeeService(repo)
	batchService := services.NewBatchService(repo)
	advanceService := services.NewAdvanceService(repo, repo, repo)
	settlementService := services.NewSettlementService(repo)
	slipService := services.NewSlipService(settlementService, repo, signer, archive, cfg.Slips.CompanyName)
	exportService := services.NewExportService(settlementService, repo)

	// Handlers
	var healthChecker *health.HealthChecker
	if pool != nil {
		healthChecker = health.NewHealthChecker(pool, cfg.Store)
	} else {
		healthChecker = health.NewHealthChecker(nil, cfg.Store)
	}

	router := h.NewRouter(
		handlers.NewEmployeeHandler(employeeService),
		handlers.NewBatchHandler(batchService, hub),
		handlers.NewAdvanceHandler(advanceService),
		handlers.NewSettlementHandler(settlementService, slipService, exportService, hub),
		handlers.NewHealthHandler(healthChecker, hub.ClientCount),
		hub.ServeWS,
	)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(middleware.RequestLogger(corsMiddleware(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":         addr,
			"store":        cfg.Store,
			"slip_signing": signer.Enabled(),
			"slip_archive": archive.Enabled(),
		}).Info("server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithField("error", err.Error()).Error("graceful shutdown failed")
	}
	return nil
}
