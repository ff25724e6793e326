package router

import (
	"github.com/gin-gonic/gin"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/interfaces/http/handler"
	"github.com/inventrack/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HealthPath is served outside the versioned API and skips authentication
const HealthPath = "/health"

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Sales      *handler.SaleHandler
	Items      *handler.ItemHandler
	Categories *handler.CategoryHandler
	Live       *handler.LiveHandler
	Health     *handler.HealthHandler
}

// EngineConfig configures the middleware chain
type EngineConfig struct {
	Logger           *zap.Logger
	Auth             middleware.AuthConfig
	CORS             middleware.CORSConfig
	Security         middleware.SecurityConfig
	Tracing          middleware.TracingConfig
	MaxBodySize      int64
	TrustedProxies   []string
	Meter            metric.Meter
	ProfilingEnabled bool
	// RateLimiter limits write requests per user; nil disables it
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the full middleware chain and routes
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.HTTPMetrics(cfg.Meter, cfg.Logger),
		middleware.Profiling(cfg.ProfilingEnabled),
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET(HealthPath, h.Health.Health)

	cfg.Auth.SkipPaths = append(cfg.Auth.SkipPaths, HealthPath)
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}
	r := NewRouter(engine, WithAPIMiddleware(middleware.Auth(cfg.Auth), middleware.SpanAttributes()))

	var writes []gin.HandlerFunc
	if cfg.RateLimiter != nil {
		writes = append(writes, middleware.RateLimit(cfg.RateLimiter))
	}

	r.Register(salesRoutes(h.Sales).UseForWrites(writes...)).
		Register(itemRoutes(h.Items).UseForWrites(writes...)).
		Register(categoryRoutes(h.Categories).UseForWrites(writes...)).
		Register(liveRoutes(h.Live))
	r.Setup()

	return engine, nil
}

func salesRoutes(h *handler.SaleHandler) *DomainGroup {
	return NewDomainGroup("sales", "/sales").
		POST("", h.Create).
		GET("", h.List).
		POST("/purge", h.Purge).
		POST("/purge-today", h.PurgeToday).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

func itemRoutes(h *handler.ItemHandler) *DomainGroup {
	return NewDomainGroup("items", "/items").
		POST("", h.Create).
		GET("", h.List).
		DELETE("", h.DeleteAll).
		GET("/low-stock", h.LowStock).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

func categoryRoutes(h *handler.CategoryHandler) *DomainGroup {
	return NewDomainGroup("categories", "/categories").
		POST("", h.Create).
		GET("", h.List).
		DELETE("/:id", h.Delete)
}

func liveRoutes(h *handler.LiveHandler) *DomainGroup {
	return NewDomainGroup("live", "/live").
		GET("/:query", h.Stream)
}
