package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/api"
	"github.com/dnlaql/cls-reporting/charting"
	"github.com/dnlaql/cls-reporting/config"
	"github.com/dnlaql/cls-reporting/database"
	"github.com/dnlaql/cls-reporting/dataset"
	"github.com/dnlaql/cls-reporting/etl"
	"github.com/dnlaql/cls-reporting/jobs"
	"github.com/dnlaql/cls-reporting/logging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)
	defer log.Sync()
	log.Info("work-order reporting service starting")

	// Initialize databases
	db, err := database.Initialize(cfg.ArchiveDBPath, cfg.AppDBPath, log)
	if err != nil {
		log.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.Close()

	repo := database.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		log.Fatal("failed to create schema", zap.Error(err))
	}
	log.Info("database schema ready")

	// Dataset store and refresh pipeline
	store := dataset.NewStore()
	loader := dataset.NewLoader(cfg, log)
	refresher := etl.NewRefresher(cfg, loader, store, repo, log)

	// Initial load is synchronous: the dashboard never serves without a
	// complete snapshot, and a broken source should fail the start.
	ctx, cancel := context.WithTimeout(context.Background(),
		2*time.Duration(cfg.HTTPTimeoutSeconds)*time.Second)
	snap, err := refresher.Refresh(ctx)
	cancel()
	if err != nil {
		log.Fatal("initial dataset load failed", zap.Error(err))
	}
	log.Info("initial dataset loaded",
		zap.String("version", snap.Version.String()),
		zap.Int("rows", len(snap.Rows)))

	// Initialize worker pool
	workerPool := jobs.NewWorkerPool(cfg.WorkerPoolSize, log)
	defer workerPool.Stop()

	// Scheduled refresh
	scheduler := etl.NewScheduler(cfg, refresher, repo, log)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize API handler
	generator := charting.NewGenerator(cfg.Charts)
	handler := api.NewHandler(db, repo, cfg, store, generator, workerPool, refresher, log)

	// Setup router
	router := api.SetupRouter(handler)
	router.Use(api.CORSMiddleware())
	router.Use(api.LoggingMiddleware(log))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("api server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
