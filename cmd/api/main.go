package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/sweetshop-golang/internal/auth"
	"github.com/01moynul/sweetshop-golang/internal/catalog"
	"github.com/01moynul/sweetshop-golang/internal/config"
	"github.com/01moynul/sweetshop-golang/internal/database"
	"github.com/01moynul/sweetshop-golang/internal/handlers"
	"github.com/01moynul/sweetshop-golang/internal/inventory"
	"github.com/01moynul/sweetshop-golang/internal/jobs"
	"github.com/01moynul/sweetshop-golang/internal/logging"
	"github.com/01moynul/sweetshop-golang/internal/metrics"
	"github.com/01moynul/sweetshop-golang/internal/routes"
	"github.com/01moynul/sweetshop-golang/internal/store"
	"github.com/01moynul/sweetshop-golang/internal/upload"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var configFile = flag.String("config", "", "Path to a YAML configuration file")

func main() {
	flag.Parse()

	// 0. --- Configuration (.env, optional YAML, environment) ---
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database (opened here, closed at shutdown) ---
	db, err := database.OpenDB(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sqlStore := store.NewSQLStore(db, cfg.Database.Driver)
	if err := sqlStore.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// 2. --- Services ---
	registry := metrics.NewRegistry()
	ledger := inventory.NewLedger(sqlStore, logger, registry,
		inventory.WithMaxAttempts(cfg.Ledger.MaxAttempts),
	)
	catalogSvc := catalog.NewService(sqlStore)

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		logger.Fatal("failed to configure tokens", zap.Error(err))
	}

	images, err := upload.NewDiskStore(cfg.Upload.Dir, "/uploads", cfg.Upload.MaxMB<<20)
	if err != nil {
		logger.Fatal("failed to prepare upload folder", zap.Error(err))
	}

	app := &handlers.Handlers{
		Ledger:  ledger,
		Catalog: catalogSvc,
		Users:   sqlStore,
		Tokens:  tokens,
		Images:  images,
		Logger:  logger,
	}

	// 3. --- Background Worker (Cron) ---
	reporter := jobs.NewStockReporter(catalogSvc, registry, logger, cfg.StockReport.LowStockThreshold)
	if err := reporter.Start(cfg.StockReport.Schedule); err != nil {
		logger.Fatal("failed to schedule stock report", zap.Error(err))
	}

	// 4. --- Router & Server ---
	router := routes.SetupRouter(app, routes.Options{
		CORSOrigin: cfg.CORSOrigin,
		UploadDir:  cfg.Upload.Dir,
		Metrics:    registry.Handler(),
		Logger:     logger,
	})
	router.MaxMultipartMemory = cfg.Upload.MaxMB << 20

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting Sweet Shop API", zap.String("port", cfg.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	reporter.Stop(shutdownCtx)
}
