/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the pay engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, PAY_* variables, then flags)
  2. Initialize SQLite store
  3. Seed award presets and load guide files
  4. Create API handler and router
  5. Start holiday scheduler (when enabled)
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -env     .env file to load (default: ./.env when present)
  -port    HTTP server port (default: PAY_PORT or 8080)
  -db      SQLite database path (default: PAY_DB or ./pay.db)
           Use ":memory:" for in-memory database
  -guides  Directory of guide documents to load (default: PAY_GUIDES_DIR)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the holiday scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (PAY_SHUTDOWN_TIMEOUT, 30s)
  4. Close database connection

EXAMPLES:
  # Run with file database and both award presets
  PAY_PRESETS=retail,hospitality ./server -db="./data/pay.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/pay-engine/api"
	"github.com/warp/pay-engine/config"
	"github.com/warp/pay-engine/store/sqlite"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// The env file has to be known before the other flags get their defaults.
	envFile := ""
	for i, a := range args {
		if a == "-env" && i+1 < len(args) {
			envFile = args[i+1]
		} else if len(a) > 5 && a[:5] == "-env=" {
			envFile = a[5:]
		}
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.String("env", envFile, ".env file to load")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.GuidesDir, "guides", cfg.GuidesDir, "Directory of guide documents to load")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.NewLogger("pay-engine", os.Stdout)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logger)
	handler.Timezone = cfg.Timezone
	handler.WeekStart = cfg.WeekStart
	handler.BatchLimit = cfg.BatchLimit

	ctx := context.Background()
	if len(cfg.Presets) > 0 {
		n, err := seedPresets(ctx, store, handler.GuideFactory, logger, cfg.Presets, cfg.PresetBaseRate, cfg.PresetFYStart)
		if err != nil {
			return err
		}
		logger.Info("presets ready", "seeded", n, "requested", len(cfg.Presets))
	}
	if cfg.GuidesDir != "" {
		n, err := loadGuideDir(ctx, store, handler.GuideFactory, logger, cfg.GuidesDir)
		if err != nil {
			return err
		}
		logger.Info("guides loaded", "dir", cfg.GuidesDir, "changed", n)
	}

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.CORSOrigins})

	scheduler := api.NewHolidayScheduler(store, logger)
	scheduler.CheckInterval = cfg.HolidaySyncInterval
	scheduler.Enabled = cfg.HolidaySync
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		scheduler.Stop()
		return err
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}
