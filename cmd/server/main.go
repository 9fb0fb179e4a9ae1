package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	billingapp "github.com/ecommerized/adperfumes-sub001/internal/application/billing"
	commissionapp "github.com/ecommerized/adperfumes-sub001/internal/application/commission"
	eventapp "github.com/ecommerized/adperfumes-sub001/internal/application/event"
	orderapp "github.com/ecommerized/adperfumes-sub001/internal/application/order"
	refundapp "github.com/ecommerized/adperfumes-sub001/internal/application/refund"
	settlementapp "github.com/ecommerized/adperfumes-sub001/internal/application/settlement"
	taxapp "github.com/ecommerized/adperfumes-sub001/internal/application/tax"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/cache"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/config"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/event"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/logger"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/persistence"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/telemetry"
	"github.com/ecommerized/adperfumes-sub001/internal/interfaces/http/handler"
	"github.com/ecommerized/adperfumes-sub001/internal/interfaces/http/middleware"
	"github.com/ecommerized/adperfumes-sub001/internal/interfaces/http/router"
	"github.com/ecommerized/adperfumes-sub001/internal/jobs"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting commission ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	// Initialize database
	db, err := persistence.NewDatabaseWithOptions(&cfg.Database, persistence.Options{
		LogLevel:     logger.MapGormLogLevel(cfg.Log.Level),
		TraceQueries: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName))

	// Redis client for distributed order locks
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	// Initialize repositories
	merchantRepo := persistence.NewGormMerchantRepository(db.DB)
	ruleRepo := persistence.NewGormCommissionRuleRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	settlementRepo := persistence.NewGormSettlementRepository(db.DB)
	debitNoteRepo := persistence.NewGormDebitNoteRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	creditNoteRepo := persistence.NewGormCreditNoteRepository(db.DB)
	vatReturnRepo := persistence.NewGormVatReturnRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	complianceEventRepo := persistence.NewGormComplianceEventRepository(db.DB)
	txLogRepo := persistence.NewGormTransactionLogRepository(db.DB)
	sequencer := persistence.NewGormNumberSequencer(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Event infrastructure. Domain events leave the services through the
	// transactional outbox and reach in-process subscribers via the
	// outbox processor.
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	publisher := event.NewOutboxPublisherWithDB(eventSerializer, db.DB)
	eventBus := event.NewInMemoryEventBus(log)

	// Idempotency store for event handlers (redis, in-memory fallback)
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	// Initialize application services
	vatRate := decimal.NewFromFloat(cfg.Tax.VatRatePercent)

	merchantService := commissionapp.NewMerchantService(merchantRepo,
		commissionapp.WithDefaultCommission(decimal.NewFromFloat(cfg.Commission.DefaultPercentage)))
	ruleService := commissionapp.NewRuleService(ruleRepo, merchantRepo)
	intakeService := orderapp.NewIntakeService(orderRepo, ruleService, publisher, log)
	settlementScope := persistence.NewGormSettlementTransactionScope(db.DB)
	settlementService := settlementapp.NewService(
		settlementRepo, debitNoteRepo, orderRepo, merchantRepo, refundRepo,
		txLogRepo, sequencer, settlementScope, publisher, vatRate, log,
		settlementapp.WithPayoutCycle(cfg.Settlement.CycleDays))
	orderLocker := cache.NewRedisOrderLocker(redisClient,
		cfg.Settlement.LockTTL, cfg.Settlement.LockRetry, cfg.Settlement.LockTimeout)
	refundScope := persistence.NewGormRefundTransactionScope(db.DB)
	reconcilerService := refundapp.NewReconcilerService(
		refundRepo, orderRepo, merchantRepo, settlementRepo, debitNoteRepo,
		invoiceRepo, creditNoteRepo, txLogRepo, sequencer, orderLocker,
		refundScope, publisher, vatRate, log)
	complianceService := taxapp.NewComplianceService(
		vatReturnRepo, expenseRepo, complianceEventRepo, orderRepo,
		txLogRepo, sequencer, publisher, vatRate, log,
		taxapp.WithReminderLeadTime(cfg.Tax.ReminderLeadTime))
	expenseImportService := taxapp.NewExpenseImportService(expenseRepo, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Subscribe event handlers. The outbox delivers at-least-once, so
	// every handler is wrapped for idempotent processing.
	invoiceIssuer := billingapp.NewOrderPaidHandler(invoiceRepo, orderRepo, sequencer, log)
	eventBus.Subscribe(event.NewIdempotentHandler(invoiceIssuer, idempotencyStore, log))

	enqueuer := jobs.NewEnqueuer(cfg)
	defer func() { _ = enqueuer.Close() }()
	eventBus.Subscribe(event.NewIdempotentHandler(jobs.NewEventRelay(enqueuer, log), idempotencyStore, log))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = eventBus.Stop(stopCtx)
	}()

	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer,
		event.DefaultOutboxProcessorConfig(), log)
	if err := outboxProcessor.Start(ctx); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = outboxProcessor.Stop(stopCtx)
	}()

	// Background worker for compliance obligation sweeps
	consumer := jobs.NewConsumer(complianceService, complianceEventRepo, log)
	jobService, err := jobs.NewService(cfg, consumer, log)
	if err != nil {
		log.Fatal("Failed to initialize job service", zap.Error(err))
	}
	if jobService != nil {
		go func() {
			if err := jobService.Start(); err != nil {
				log.Error("Job service stopped", zap.Error(err))
			}
		}()
		defer jobService.Stop()
	}

	// Setup Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitMax, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.SpanErrorMarker())
	}

	engine.GET("/health", healthHandler(db, log))

	// API routes. Every tenant-scoped endpoint requires X-Tenant-ID; the
	// system endpoints stay public for probes.
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/api/v1/system"},
		Required:  true,
		Logger:    log,
	}))
	r.Register(handler.NewSystemHandler())
	r.Register(handler.NewOutboxHandler(outboxService))
	r.Register(handler.NewMerchantHandler(merchantService))
	r.Register(handler.NewCommissionRuleHandler(ruleService))
	r.Register(handler.NewOrderHandler(intakeService))
	r.Register(handler.NewSettlementHandler(settlementService))
	r.Register(handler.NewRefundHandler(reconcilerService))
	r.Register(handler.NewTaxHandler(complianceService))
	r.Register(handler.NewExpenseImportHandler(expenseImportService))
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
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// healthHandler reports liveness including database reachability
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
