package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartapp "github.com/farmmarket/backend/internal/application/cart"
	catalogapp "github.com/farmmarket/backend/internal/application/catalog"
	contentapp "github.com/farmmarket/backend/internal/application/content"
	dashboardapp "github.com/farmmarket/backend/internal/application/dashboard"
	functionsapp "github.com/farmmarket/backend/internal/application/functions"
	identityapp "github.com/farmmarket/backend/internal/application/identity"
	inventoryapp "github.com/farmmarket/backend/internal/application/inventory"
	moderationapp "github.com/farmmarket/backend/internal/application/moderation"
	orderapp "github.com/farmmarket/backend/internal/application/order"
	subscriptionapp "github.com/farmmarket/backend/internal/application/subscription"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/farmmarket/backend/internal/infrastructure/auth"
	"github.com/farmmarket/backend/internal/infrastructure/cache"
	"github.com/farmmarket/backend/internal/infrastructure/config"
	"github.com/farmmarket/backend/internal/infrastructure/event"
	"github.com/farmmarket/backend/internal/infrastructure/logger"
	"github.com/farmmarket/backend/internal/infrastructure/persistence"
	"github.com/farmmarket/backend/internal/infrastructure/scheduler"
	"github.com/farmmarket/backend/internal/infrastructure/storage"
	"github.com/farmmarket/backend/internal/infrastructure/telemetry"
	"github.com/farmmarket/backend/internal/interfaces/http/handler"
	"github.com/farmmarket/backend/internal/interfaces/http/middleware"
	"github.com/farmmarket/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/farmmarket/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Farm Market API
//	@version		1.0
//	@description	Marketplace backend connecting local farmers with buyers: catalog, cart and checkout, farmer dashboards and admin moderation.

//	@contact.name	API Support
//	@contact.email	support@farmmarket.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// OTLP log export is created first so the logger can tee into it
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry)
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
		if err := logProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down log exporter", zap.Error(err))
		}
	}()

	log.Info("Starting Farm Market backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Tracing and business metrics
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, log); err != nil {
		log.Warn("Database tracing not enabled", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis backs the token blacklist, the catalog cache and checkout
	// idempotency; without it each falls back to process memory
	var (
		redisClient *redis.Client
		blacklist   auth.TokenBlacklist
		listings    catalogapp.ListingCache
		idempotency orderapp.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		listings = cache.NewRedisCatalogCache(redisClient, cfg.Cache.CatalogTTL)
		idempotency = cache.NewRedisIdempotencyStore(redisClient)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		listings = cache.NewInMemoryCatalogCache(cfg.Cache.CatalogTTL)
		idempotency = cache.NewInMemoryIdempotencyStore()
		log.Warn("Redis disabled, using in-memory token blacklist and caches")
	}

	objectStore, err := storage.New(cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	currency, err := valueobject.ParseCurrency(cfg.Checkout.Currency)
	if err != nil {
		log.Fatal("Invalid checkout currency", zap.Error(err), zap.String("currency", cfg.Checkout.Currency))
	}

	// Repositories
	txManager := persistence.NewGormTxManager(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	postRepo := persistence.NewGormBlogPostRepository(db.DB)
	farmEventRepo := persistence.NewGormFarmEventRepository(db.DB)
	disputeRepo := persistence.NewGormDisputeRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	jobRepo := persistence.NewGormJobRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log, event.WithAsync(cfg.Jobs.Workers, cfg.Jobs.QueueSize))

	// Identity
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, eventBus, identityapp.AuthServiceConfig{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockDuration:     cfg.Auth.LockoutDuration,
	}, log)
	profileService := identityapp.NewProfileService(userRepo, objectStore, eventBus, cfg.Storage.MaxAvatarSize, cfg.Storage.PresignExpiry, log)
	userAdminService := identityapp.NewUserAdminService(userRepo, authService, eventBus, log)

	// Subscriptions gate how many products a farmer may list
	subscriptionService := subscriptionapp.NewSubscriptionService(subscriptionRepo, productRepo, eventBus, log)

	// Catalog and stock
	browseService := catalogapp.NewBrowseService(productRepo, categoryRepo, stockRepo, listings, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, listings, log)
	productService := catalogapp.NewProductService(
		productRepo, categoryRepo, stockRepo, orderRepo, subscriptionService,
		txManager, eventBus, string(currency), log,
	)
	stockService := inventoryapp.NewStockService(stockRepo, productRepo, eventBus, log)

	// Buying
	cartService := cartapp.NewCartService(cartRepo, productRepo, stockRepo, currency, log)
	checkoutService := orderapp.NewCheckoutService(
		cartRepo, productRepo, stockRepo, orderRepo, txManager, idempotency, eventBus,
		orderapp.CheckoutConfig{
			Currency:              currency,
			ShippingFee:           cfg.Checkout.ShippingFee,
			FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
			PickupEnabled:         cfg.Checkout.PickupEnabled,
			IdempotencyTTL:        cfg.Cache.IdempotencyTTL,
		}, log,
	)
	orderService := orderapp.NewOrderService(orderRepo, stockRepo, productRepo, txManager, eventBus, log)

	// Content and moderation
	postService := contentapp.NewPostService(postRepo, log)
	farmEventService := contentapp.NewEventService(farmEventRepo, log)
	disputeService := moderationapp.NewDisputeService(disputeRepo, orderRepo, eventBus, log)
	messageService := moderationapp.NewMessageService(messageRepo, userRepo, log)

	dashboardService := dashboardapp.NewDashboardService(dashboardapp.Sources{
		Orders:        orderRepo,
		Products:      productRepo,
		Stock:         stockRepo,
		Plans:         subscriptionService,
		Users:         userRepo,
		Disputes:      disputeRepo,
		Messages:      messageRepo,
		Subscriptions: subscriptionRepo,
	}, string(currency), log)

	functionService := functionsapp.NewFunctionService(functionsapp.Deps{
		Jobs:          jobRepo,
		Users:         userRepo,
		Orders:        orderRepo,
		Products:      productRepo,
		Stock:         stockRepo,
		Disputes:      disputeRepo,
		Messages:      messageRepo,
		Posts:         postRepo,
		Events:        farmEventRepo,
		Subscriptions: subscriptionService,
		Sessions:      authService,
		Store:         objectStore,
		Publisher:     eventBus,
	}, cfg.Storage.PresignExpiry, log)

	// Event handlers for cross-context reactions
	notificationHandler := moderationapp.NewNotificationHandler(messageService, productRepo, log)
	eventBus.Subscribe(notificationHandler)
	cacheInvalidator := catalogapp.NewCacheInvalidator(listings, log)
	eventBus.Subscribe(cacheInvalidator)
	if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled {
		businessMetrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter(cfg.Telemetry.ServiceName))
		if err != nil {
			log.Fatal("Failed to create business metrics", zap.Error(err))
		}
		eventBus.Subscribe(businessMetrics)
	}
	log.Info("Event handlers registered",
		zap.Strings("notification_events", notificationHandler.EventTypes()),
		zap.Strings("cache_invalidation_events", cacheInvalidator.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Backend functions run on the worker pool
	pool := scheduler.NewWorkerPool(scheduler.PoolConfigFrom(cfg.Jobs), functionService, log)
	if err := pool.Start(ctx); err != nil {
		log.Fatal("Failed to start worker pool", zap.Error(err))
	}
	defer func() {
		if err := pool.Stop(context.Background()); err != nil {
			log.Error("Error stopping worker pool", zap.Error(err))
		}
	}()
	functionService.SetDispatcher(pool)
	if cfg.Jobs.RecoverOnStartup {
		resumed, err := functionService.ResumePending(ctx)
		if err != nil {
			log.Error("Failed to resume pending jobs", zap.Error(err))
		} else {
			log.Info("Pending jobs resumed", zap.Int("count", resumed))
		}
	}
	recovery := scheduler.NewSweeper(functionsapp.NewRecoverySweep(functionService, cfg.Jobs.StaleAfter), log, scheduler.SweeperConfig{
		Name:     "job-recovery",
		Interval: cfg.Jobs.RecoveryInterval,
	})
	if err := recovery.Start(ctx); err != nil {
		log.Fatal("Failed to start job recovery sweeper", zap.Error(err))
	}
	defer func() {
		if err := recovery.Stop(context.Background()); err != nil {
			log.Error("Error stopping job recovery sweeper", zap.Error(err))
		}
	}()
	log.Info("Worker pool started",
		zap.Int("workers", cfg.Jobs.Workers),
		zap.Duration("job_timeout", cfg.Jobs.JobTimeout),
	)

	renewals := scheduler.NewSweeper(subscriptionapp.NewRenewalSweep(subscriptionRepo, eventBus, log), log, scheduler.SweeperConfig{
		Name:       "subscription-renewal",
		Interval:   cfg.Jobs.SweepInterval,
		Timeout:    cfg.Jobs.JobTimeout,
		RunOnStart: true,
	})
	if err := renewals.Start(ctx); err != nil {
		log.Fatal("Failed to start renewal sweeper", zap.Error(err))
	}
	defer func() {
		if err := renewals.Stop(context.Background()); err != nil {
			log.Error("Error stopping renewal sweeper", zap.Error(err))
		}
	}()

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version).AddCheck("database", db.Ping)
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	handlers := router.Handlers{
		System:       systemHandler,
		Auth:         handler.NewAuthHandler(authService, profileService),
		Profile:      handler.NewProfileHandler(profileService),
		UserAdmin:    handler.NewUserAdminHandler(userAdminService),
		Catalog:      handler.NewCatalogHandler(browseService),
		Category:     handler.NewCategoryHandler(categoryService),
		Product:      handler.NewProductHandler(productService),
		Stock:        handler.NewStockHandler(stockService),
		Cart:         handler.NewCartHandler(cartService),
		Checkout:     handler.NewCheckoutHandler(checkoutService),
		Order:        handler.NewOrderHandler(orderService),
		Subscription: handler.NewSubscriptionHandler(subscriptionService),
		Content:      handler.NewContentHandler(postService, farmEventService),
		Dispute:      handler.NewDisputeHandler(disputeService),
		Message:      handler.NewMessageHandler(messageService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
		Function:     handler.NewFunctionHandler(functionService),
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	opts := router.Options{
		Config:    cfg,
		Logger:    log,
		JWT:       jwtService,
		Blacklist: blacklist,
		Metrics:   middleware.NewHTTPMetrics("farmmarket"),
		Handlers:  handlers,
	}
	if cfg.Swagger.Enabled {
		opts.Swagger = ginSwagger.WrapHandler(swaggerFiles.Handler)
	}
	api := router.New(opts)
	defer api.Close()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        api.Engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
