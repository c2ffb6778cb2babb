package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockdash/config"
	"github.com/guttosm/stockdash/internal/api"
	"github.com/guttosm/stockdash/internal/events"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/guttosm/stockdash/internal/service"
	"github.com/guttosm/stockdash/internal/storage"
)

// newPublisher returns the Kafka publisher when brokers are configured.
func newPublisher(cfg config.Config) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Builds the market and user repositories with the configured query timeout.
//   - Picks the rate limit store (Redis, in-process or none).
//   - Picks the event publisher (Kafka or no-op).
//   - Configures the Gin router and registers health and readiness probes.
//   - Provides a cleanup function that closes every opened resource.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	market := storage.NewMarketRepository(db, cfg.Postgres.QueryTimeout)
	users := storage.NewUserRepository(db, cfg.Postgres.QueryTimeout)

	publisher := newPublisher(cfg)
	store, rdb := newRateLimitStore(cfg)

	handler := api.NewHandler(
		service.NewDashboardService(market, cfg.Dashboard),
		service.NewUserService(users, publisher),
	)

	router := api.NewRouter(handler, api.RouterOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      store,
	})

	checks := map[string]api.Pinger{"postgres": db.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	api.NewHealthHandler(checks).Register(router)

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.L().Warn().Err(err).Msg("closing event publisher")
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
	}

	return router, cleanup, nil
}
