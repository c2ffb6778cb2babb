package api

import (
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/guttosm/stockdash/docs" // swagger spec registration
	"github.com/guttosm/stockdash/internal/middleware"
	"github.com/guttosm/stockdash/internal/ratelimit"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterOptions carries the cross-cutting settings of the HTTP surface.
type RouterOptions struct {
	RequestTimeout time.Duration
	RateLimit      ratelimit.Store // nil disables limiting
}

// NewRouter creates a Gin engine with every route configured.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter, Timeout).
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures the /api routes.
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(opts.RateLimit),
		middleware.Timeout(opts.RequestTimeout),
	)

	// ─── Swagger ──────────────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API ──────────────────────────────────────
	api := router.Group("/api")
	{
		api.GET("/stock-data", handler.GetStockData)
		api.GET("/companies", handler.ListCompanies)
		api.POST("/users", handler.RegisterUser)
		api.POST("/login", handler.Login)
		api.GET("/watchlist/:user_id", handler.GetWatchlist)
		api.GET("/test", handler.Test)
	}

	return router
}
