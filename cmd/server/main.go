package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/application/identity"
	"github.com/copystudio/backend/internal/application/preference"
	socialapp "github.com/copystudio/backend/internal/application/social"
	"github.com/copystudio/backend/internal/application/syncer"
	"github.com/copystudio/backend/internal/domain/state"
	"github.com/copystudio/backend/internal/infrastructure/auth"
	"github.com/copystudio/backend/internal/infrastructure/broadcast"
	"github.com/copystudio/backend/internal/infrastructure/config"
	"github.com/copystudio/backend/internal/infrastructure/logger"
	"github.com/copystudio/backend/internal/infrastructure/persistence"
	"github.com/copystudio/backend/internal/infrastructure/remote"
	"github.com/copystudio/backend/internal/infrastructure/telemetry"
	"github.com/copystudio/backend/internal/interfaces/http/handler"
	"github.com/copystudio/backend/internal/interfaces/http/middleware"
	"github.com/copystudio/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting CopyStudio Gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis is optional; without it revocation falls back to in-process
	// memory and refresh hints stay instance-local.
	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(rootCtx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}

	// Upstream service clients
	profilesClient := remote.NewProfilesClient(cfg.Services.Profiles.BaseURL, cfg.Services.Profiles.Timeout, log)
	projectsClient := remote.NewProjectsClient(cfg.Services.Projects.BaseURL, cfg.Services.Projects.Timeout, log)
	contentClient := remote.NewContentClient(cfg.Services.Content.BaseURL, cfg.Services.Content.Timeout, log)
	scheduleClient := remote.NewScheduleClient(cfg.Services.Schedule.BaseURL, cfg.Services.Schedule.Timeout, log)
	imageClient := remote.NewImageClient(cfg.Services.Image.BaseURL, cfg.Services.Image.Timeout, log)
	proposalClient := remote.NewProposalClient(cfg.Services.Proposal.BaseURL, cfg.Services.Proposal.Timeout, log)

	// Workspace mirror and syncer
	store := state.NewStore(state.WithLogger(log))
	authSource := syncer.NewChannelAuthSource()

	syncOpts := []syncer.Option{}
	if redisClient != nil {
		syncOpts = append(syncOpts, syncer.WithBroadcaster(
			broadcast.NewRedisBroadcaster(redisClient, broadcast.WithLogger(log)),
		))
	}
	syncService := syncer.NewService(store, profilesClient, projectsClient, authSource, cfg.Sync, log, syncOpts...)
	go func() {
		if err := syncService.Run(rootCtx); err != nil && rootCtx.Err() == nil {
			log.Error("Workspace syncer stopped", zap.Error(err))
		}
	}()

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	var revoker auth.TokenRevoker
	if redisClient != nil {
		revoker = auth.NewRedisTokenRevoker(redisClient)
	} else {
		revoker = auth.NewMemoryTokenRevoker()
	}
	verifier := auth.NewGoogleVerifier(cfg.Google, log)
	sessionService := identity.NewSessionService(verifier, jwtService, revoker, authSource, log)

	// Settings-backed services
	settingsRepo := persistence.NewGormUserSettingRepository(db.DB)
	connectionService := socialapp.NewConnectionService(settingsRepo, nil, log)
	preferenceService := preference.NewService(settingsRepo, log)

	// Handlers
	systemHandler := handler.NewSystemHandler()
	authHandler := handler.NewAuthHandler(sessionService, log)
	workspaceHandler := handler.NewWorkspaceHandler(store, syncService, log)
	streamHandler := handler.NewWorkspaceStreamHandler(store, handler.WithStreamLogger(log))
	defer streamHandler.Stop()
	projectsHandler := handler.NewProjectsHandler(projectsClient, syncService, log)
	contentHandler := handler.NewContentHandler(contentClient, log)
	scheduleHandler := handler.NewScheduleHandler(scheduleClient, connectionService, log)
	mediaHandler := handler.NewMediaHandler(imageClient, proposalClient, log)
	integrationsHandler := handler.NewIntegrationsHandler(connectionService, log)
	settingsHandler := handler.NewSettingsHandler(preferenceService, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, ordered: request ID first so everything downstream
	// can log it, recovery before anything that can panic, then logging,
	// headers, CORS, body/rate limits, tracing, and finally auth.
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
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.App.Name,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())

	engine.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Revoker:    revoker,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/api/v1/auth/session",
			"/api/v1/auth/refresh",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithHealthHandler(healthHandler(db, log)),
	).
		Register(systemHandler).
		Register(authHandler).
		Register(workspaceHandler).
		Register(streamHandler).
		Register(projectsHandler).
		Register(contentHandler).
		Register(scheduleHandler).
		Register(mediaHandler).
		Register(integrationsHandler).
		Register(settingsHandler).
		Setup()

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

	<-rootCtx.Done()
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness including database reachability
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			log.Warn("Health check failed", zap.Error(err))
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
