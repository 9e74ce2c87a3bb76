package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/buildledger/backend/internal/application/finance"
	"github.com/buildledger/backend/internal/infrastructure/cache"
	"github.com/buildledger/backend/internal/infrastructure/config"
	"github.com/buildledger/backend/internal/infrastructure/logger"
	"github.com/buildledger/backend/internal/infrastructure/persistence"
	"github.com/buildledger/backend/internal/infrastructure/storage"
	"github.com/buildledger/backend/internal/infrastructure/telemetry"
	"github.com/buildledger/backend/internal/interfaces/http/handler"
	"github.com/buildledger/backend/internal/interfaces/http/middleware"
	"github.com/buildledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
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

	log.Info("Starting BuildLedger backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database, with SQL logs routed through zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories and unit of work
	uow := persistence.NewGormUnitOfWork(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	recurringRepo := persistence.NewGormRecurringExpenseRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	subProjectRepo := persistence.NewGormSubProjectRepository(db.DB)

	// Spend report cache: redis when available, in-memory otherwise
	var reportCache financeapp.ReportCache
	if cfg.Report.CacheEnabled {
		cacheFactory := cache.NewReportCacheFactory(cfg.Redis, cfg.Report.CacheTTL,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(true),
		)
		reportCache, err = cacheFactory.CreateCache()
		if err != nil {
			log.Fatal("Failed to initialize report cache", zap.Error(err))
		}
	} else {
		reportCache = cache.NewInMemoryReportCache(cfg.Report.CacheTTL)
	}

	// Receipt storage: S3-compatible when configured, local stub otherwise
	var receipts financeapp.ReceiptStorage
	if cfg.Storage.Bucket != "" && cfg.Storage.AccessKey != "" {
		s3Storage, err := storage.NewS3ReceiptStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize receipt storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure receipt bucket", zap.Error(err))
		}
		receipts = s3Storage
		log.Info("Receipt storage ready", zap.String("bucket", s3Storage.GetBucket()))
	} else {
		receipts = storage.NewStubReceiptStorage()
		log.Warn("Object storage not configured, receipt uploads use the in-memory stub")
	}

	// Application services
	invoiceService := financeapp.NewInvoiceService(uow, invoiceRepo, expenseRepo, reportCache, log)
	expenseService := financeapp.NewExpenseService(uow, expenseRepo, recurringRepo, reportCache, log)
	settlementService := financeapp.NewSettlementService(uow, projectRepo, subProjectRepo, receipts, reportCache, log)
	reportService := financeapp.NewSpendReportService(expenseRepo, invoiceRepo, reportCache, log)

	// HTTP engine and middleware chain
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxy configuration", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.RequestLogger(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
	}

	// Database-aware health check
	engine.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
	})

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Mount("/finance",
		handler.NewInvoiceHandler(invoiceService, settlementService),
		handler.NewExpenseHandler(expenseService),
		handler.NewReportHandler(reportService),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
