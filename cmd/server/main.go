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

	"log/slog"

	"github.com/reftrack/reftrack/api"
	dbfs "github.com/reftrack/reftrack/db"
	"github.com/reftrack/reftrack/internal/config"
	"github.com/reftrack/reftrack/internal/credentials"
	"github.com/reftrack/reftrack/internal/db"
	"github.com/reftrack/reftrack/internal/jobs"
	"github.com/reftrack/reftrack/internal/repository/sqlite"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)

	log.Printf("Starting reftrack server version %s (built at %s)", version, buildTime)

	ctx := context.Background()

	// Open database connection. The store owns one connection for the
	// process lifetime and main guarantees Close on every exit path.
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer database.Close()

	// Idempotent schema init: creates missing tables, never drops data.
	if err := db.Migrate(ctx, database, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	codec, err := credentials.NewCodec(cfg.CredentialKey)
	if err != nil {
		log.Fatalf("Failed to init credential codec: %v", err)
	}

	// Export worker pool
	repo := sqlite.New(database, logger)
	jobsRepo := jobs.NewRepository(database)
	pool := jobs.NewWorkerPool(jobsRepo, jobs.ExportHandlers(repo), logger, cfg.WorkerCount)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	pool.Start(workerCtx)

	handler := api.SetupRoutes(cfg, version, buildTime, database, codec, jobsRepo)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	cancelWorkers()
	pool.Stop()

	log.Println("Server exited")
}
