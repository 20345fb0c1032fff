package router

import (
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/infrastructure/auth"
	"github.com/farmmarket/backend/internal/infrastructure/config"
	"github.com/farmmarket/backend/internal/infrastructure/logger"
	"github.com/farmmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options carries everything the engine is assembled from
type Options struct {
	Config    *config.Config
	Logger    *zap.Logger
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
	Metrics   *middleware.HTTPMetrics
	Handlers  Handlers
	// Swagger serves the API docs; nil leaves /swagger unmounted
	Swagger gin.HandlerFunc
}

// API is the assembled gin engine with the background resources it owns
type API struct {
	Engine   *gin.Engine
	limiters []*middleware.RateLimiter
}

// Close stops the rate limiter sweepers
func (a *API) Close() {
	for _, l := range a.limiters {
		l.Stop()
	}
}

// New builds the engine: the global middleware chain, the operational
// endpoints outside the version prefix and the versioned API groups
func New(opts Options) *API {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	api := &API{Engine: gin.New()}
	engine := api.Engine

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// the access log reads the request id, the enricher reads the otelgin span
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	engine.Use(middleware.SpanEnricher())
	if opts.Metrics != nil {
		engine.Use(opts.Metrics.Middleware())
	}
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig(cfg.App.IsProduction())))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService:     opts.JWT,
		TokenBlacklist: opts.Blacklist,
		Logger:         log,
	})

	engine.GET("/health", opts.Handlers.System.Health)
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.Swagger != nil {
		engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg.Swagger, jwtAuth), opts.Swagger)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if cfg.HTTP.RateLimitEnabled {
		general := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		api.limiters = append(api.limiters, general)
		// claims are peeked first so signed-in users are limited per account
		r.Use(middleware.OptionalJWTAuth(opts.JWT), middleware.RateLimit(general))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}

	guards := Guards{
		Authenticated: jwtAuth,
		Role: func(roles ...identity.Role) gin.HandlerFunc {
			return middleware.RequireRole(log, roles...)
		},
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		credentials := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		api.limiters = append(api.limiters, credentials)
		guards.AuthLimit = middleware.RateLimitByKey(credentials, func(c *gin.Context) string {
			return "auth:" + c.ClientIP()
		})
	}

	r.Register(APIGroups(opts.Handlers, guards)...)
	r.Setup()
	return api
}
