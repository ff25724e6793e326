package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/inventrack/backend/internal/application/livequery"
	"github.com/inventrack/backend/internal/application/retry"
	appsales "github.com/inventrack/backend/internal/application/sales"
	appstock "github.com/inventrack/backend/internal/application/stock"
	"github.com/inventrack/backend/internal/infrastructure/auth"
	"github.com/inventrack/backend/internal/infrastructure/cache"
	"github.com/inventrack/backend/internal/infrastructure/config"
	"github.com/inventrack/backend/internal/infrastructure/event"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/infrastructure/persistence"
	"github.com/inventrack/backend/internal/infrastructure/storage"
	"github.com/inventrack/backend/internal/infrastructure/telemetry"
	"github.com/inventrack/backend/internal/interfaces/http/handler"
	"github.com/inventrack/backend/internal/interfaces/http/middleware"
	"github.com/inventrack/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry: logs first so later startup messages are exported too
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             cfg.Telemetry.LogsLevel,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = telemetry.BridgeLogger(log, cfg.Telemetry.ServiceName, logProvider)

	log.Info("Starting Inventrack",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	location, err := cfg.App.Location()
	if err != nil {
		log.Fatal("Invalid timezone", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.PyroscopeAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.PyroscopeUser,
		BasicAuthPassword: cfg.Telemetry.PyroscopePassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Initialize database
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		IncludeVariables:   cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBName:             cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	itemRepo := persistence.NewGormItemRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus carries committed changes to the live query hub and the relay
	eventBus := event.NewInMemoryEventBus(log)

	policy := retry.Policy{
		MaxAttempts:     cfg.Sales.RetryMaxAttempts,
		InitialInterval: cfg.Sales.RetryInitialInterval,
		MaxInterval:     cfg.Sales.RetryMaxInterval,
	}

	// Application services
	itemService := appstock.NewItemService(itemRepo, log, appstock.ItemServiceConfig{
		Retry:             policy,
		LowStockThreshold: cfg.Sales.LowStockThreshold,
	})
	itemService.SetEventPublisher(eventBus)

	categoryService := appstock.NewCategoryService(categoryRepo, log)
	categoryService.SetEventPublisher(eventBus)

	saleService := appsales.NewSaleService(txScope, saleRepo, log, appsales.Config{
		Retry:               policy,
		RestoreStockOnPurge: cfg.Sales.RestoreStockOnPurge,
		Location:            location,
	})
	saleService.SetEventPublisher(eventBus)

	salesMetrics, err := telemetry.NewSalesMetrics(telemetry.SalesMetricsConfig{
		Meter:             meterProvider.Meter("inventrack/sales"),
		Logger:            log,
		LowStock:          persistence.NewGormLowStockCounter(db.DB),
		LowStockThreshold: cfg.Sales.LowStockThreshold,
	})
	if err != nil {
		log.Fatal("Failed to create sales metrics", zap.Error(err))
	}
	saleService.SetSalesMetrics(salesMetrics)

	if cfg.Storage.Enabled && cfg.Sales.ArchivePurges {
		objectStore, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare archive bucket", zap.String("bucket", objectStore.Bucket()), zap.Error(err))
		}
		saleService.SetPurgeArchiver(storage.NewSaleArchiver(objectStore, cfg.Storage.KeyPrefix, log))
		log.Info("Purge archiving enabled", zap.String("bucket", objectStore.Bucket()))
	}

	// Live queries
	hub := livequery.NewHub(itemService, saleService, log, livequery.Config{
		LoadTimeout:  cfg.LiveQuery.LoadTimeout,
		ItemPageSize: cfg.LiveQuery.ItemPageSize,
	})
	eventBus.Subscribe(hub)

	// Redis backs idempotency keys and the cross-instance change relay
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	idempotency, err := cache.NewIdempotencyStoreFactory(redisClient,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	var relay *cache.RedisChangeRelay
	if cfg.LiveQuery.RelayEnabled {
		if redisClient == nil {
			log.Fatal("Live query relay requires Redis")
		}
		relay = cache.NewRedisChangeRelay(redisClient, hub,
			cache.WithRelayChannel(cfg.LiveQuery.RelayChannel),
			cache.WithRelayLogger(log),
		)
		eventBus.Subscribe(relay)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("Change relay stopped", zap.Error(err))
			}
		}()
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateWindow)
	}

	liveHandler := handler.NewLiveHandler(hub, cfg.HTTP.SSEHeartbeat, location)

	// Handlers
	handlers := router.Handlers{
		Sales: handler.NewSaleHandler(saleService, handler.SaleHandlerConfig{
			Idempotency:       idempotency,
			IdempotencyTTL:    cfg.Sales.IdempotencyTTL,
			IdempotencyHeader: cfg.HTTP.IdempotencyHeader,
			Location:          location,
		}),
		Items:      handler.NewItemHandler(itemService),
		Categories: handler.NewCategoryHandler(categoryService),
		Live:       liveHandler,
		Health:     handler.NewHealthHandler(db, hub.SubscriptionCount),
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Auth: middleware.AuthConfig{
			JWTService:      auth.NewJWTService(cfg.Auth),
			AllowHeaderUser: cfg.Auth.AllowHeaderUser,
			UserHeader:      cfg.Auth.UserHeader,
			Logger:          log,
		},
		CORS:     corsConfig,
		Security: middleware.DefaultSecurityConfig(),
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		Meter:            meterProvider.Meter("inventrack/http"),
		ProfilingEnabled: profiler.IsEnabled(),
		RateLimiter:      limiter,
	}, handlers)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}
	srv.RegisterOnShutdown(liveHandler.Close)

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	hub.Close()
	if relay != nil {
		if err := relay.Close(); err != nil {
			log.Warn("Failed to stop change relay", zap.Error(err))
		}
	}
	stop()
	if limiter != nil {
		limiter.Stop()
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Failed to stop event bus", zap.Error(err))
	}
	if err := idempotency.Close(); err != nil {
		log.Warn("Failed to close idempotency store", zap.Error(err))
	}
	salesMetrics.Stop()

	shutdownTelemetry(shutdownCtx, log, profiler, meterProvider, tracerProvider, logProvider)

	log.Info("Server exited gracefully")
}

// shutdownTelemetry flushes exporters in reverse start order
func shutdownTelemetry(
	ctx context.Context,
	log *zap.Logger,
	profiler *telemetry.Profiler,
	meters *telemetry.MeterProvider,
	tracer *telemetry.TracerProvider,
	logs *telemetry.LoggerProvider,
) {
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := meters.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := tracer.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := logs.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}
}
