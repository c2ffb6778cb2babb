package main

//
//  @title           stockdash API
//  @version         1.0
//  @description     Market data aggregation and watchlist service.
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/stockdash
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:3000
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        market
//  @tag.description Aggregated market data and company listings
//
//  @tag.name        users
//  @tag.description Registration, login and watchlists
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/stockdash/config"
	"github.com/guttosm/stockdash/internal/app"
	"github.com/guttosm/stockdash/internal/ingestion"
	"github.com/guttosm/stockdash/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
// WriteTimeout is the per-request timeout plus five seconds.
func startServer(router http.Handler, port string, requestTimeout time.Duration) *http.Server {
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runMigrate applies pending migrations against the configured database.
func runMigrate(cfg config.Config) error {
	db, err := app.InitPostgres(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return app.Migrate(db)
}

// main is the entry point of the stockdash service.
//
// Modes (selected via --mode flag):
//   - api:     Starts the REST API (default).
//   - migrate: Applies the embedded goose migrations and exits.
//   - ingest:  Loads the last --days trading days of price CSVs from --dir.
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	mode := flag.String("mode", "api", "Mode: api, migrate or ingest")
	dir := flag.String("dir", "./data/prices", "Directory with YYYY-MM-DD_prices.csv files")
	days := flag.Int("days", 5, "Number of last trading days to ingest (1-30)")
	parallel := flag.Int("parallel", 0, "How many files to process concurrently (0=auto up to CPU, max 7)")
	force := flag.Bool("force", false, "Reprocess days even if already ingested (deletes existing prices for that day)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "migrate":
		logger.L().Info().Msg("running migrations")
		if err := runMigrate(config.AppConfig); err != nil {
			logger.L().Fatal().Err(err).Msg("migration failed")
		}
		logger.L().Info().Msg("migrations applied")

	case "ingest":
		logger.L().Info().Msg("running ingestion")

		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		if err := ingestion.ProcessDirectory(ctx, *dir, db, *days, *parallel, *force); err != nil {
			logger.L().Fatal().Err(err).Msg("ingestion failed")
		}
		logger.L().Info().Msg("ingestion completed successfully")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port, config.AppConfig.Server.RequestTimeout)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
