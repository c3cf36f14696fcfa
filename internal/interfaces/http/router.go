// Package http assembles the gin router and HTTP server for the API.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/prometheus"
	"github.com/clauselens/clauselens/internal/interfaces/http/handlers"
	"github.com/clauselens/clauselens/internal/interfaces/http/middleware"
)

// RouterConfig aggregates everything the route tree needs.
type RouterConfig struct {
	ServerConfig config.ServerConfig
	AuthConfig   config.AuthConfig

	DocumentHandler *handlers.DocumentHandler
	AnalyzeHandler  *handlers.AnalyzeHandler
	HealthHandler   *handlers.HealthHandler

	Metrics *prometheus.Metrics
	Logger  logging.Logger
}

// NewRouter builds the complete route tree: public probes and metrics, and
// the authenticated /api/v1 group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.ServerConfig.Mode != "" {
		gin.SetMode(cfg.ServerConfig.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	var recorder middleware.HTTPRecorder
	if cfg.Metrics != nil {
		recorder = cfg.Metrics
	}
	r.Use(middleware.RequestLogging(log, recorder))

	// Public endpoints.
	r.GET("/healthz", cfg.HealthHandler.Health)
	r.GET("/readyz", cfg.HealthHandler.Ready)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	// Authenticated API.
	api := r.Group("/api/v1")
	api.Use(middleware.NewRateLimiter(50, 100).Middleware())
	api.Use(middleware.Auth(cfg.AuthConfig))
	{
		api.POST("/analyze", cfg.AnalyzeHandler.Analyze)

		docs := api.Group("/documents")
		{
			docs.POST("", cfg.DocumentHandler.Upload)
			docs.GET("", cfg.DocumentHandler.List)
			docs.GET("/search", cfg.DocumentHandler.Search)
			docs.GET("/:id", cfg.DocumentHandler.Get)
			docs.DELETE("/:id", cfg.DocumentHandler.Delete)
			docs.POST("/:id/analyze", cfg.DocumentHandler.Analyze)
			docs.GET("/:id/analysis", cfg.DocumentHandler.GetAnalysis)
		}
	}

	return r
}
