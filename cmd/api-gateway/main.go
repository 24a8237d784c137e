package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/intransparency/platform-api/api/swagger"
	"github.com/intransparency/platform-api/internal/handler"
	"github.com/intransparency/platform-api/internal/middleware"
	"github.com/intransparency/platform-api/internal/models"
	"github.com/intransparency/platform-api/internal/repository"
	"github.com/intransparency/platform-api/internal/service"
	"github.com/intransparency/platform-api/pkg/cache"
	"github.com/intransparency/platform-api/pkg/config"
	"github.com/intransparency/platform-api/pkg/database"
	"github.com/intransparency/platform-api/pkg/jobs"
	"github.com/intransparency/platform-api/pkg/logger"
	corsmiddleware "github.com/intransparency/platform-api/pkg/middleware/cors"
	reqidmiddleware "github.com/intransparency/platform-api/pkg/middleware/requestid"
	"github.com/intransparency/platform-api/pkg/storage"
)

// @title InTransparency Platform API
// @version 1.0.0
// @description Recruiting platform API centered on tiered student analytics.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without response cache", zap.Error(err))
		redisClient = nil
	}

	metricsService := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient)
	cacheService := service.NewCacheService(cacheRepo, metricsService, logr)

	analyticsRepo := repository.NewAnalyticsRepository(db)
	userRepo := repository.NewUserRepository(db)

	var analyticsCache *service.CacheService
	if cfg.Analytics.CacheEnabled {
		analyticsCache = cacheService
	}
	analyticsService := service.NewAnalyticsService(service.AnalyticsServiceParams{
		Repo:   analyticsRepo,
		Cache:  analyticsCache,
		Logger: logr,
		Config: service.AnalyticsServiceConfig{CacheTTL: cfg.Analytics.CacheTTL},
	})

	authService := service.NewAuthService(userRepo, logr, service.AuthServiceConfig{
		Secret:          cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.Expiration,
		RefreshTokenTTL: cfg.JWT.RefreshExpiration,
	})

	authHandler := handler.NewAuthHandler(authService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/dashboard/student/analytics",
		middleware.RBAC(models.RoleStudent, models.RoleAdmin),
		analyticsHandler.StudentAnalytics)
	authed.GET("/system/metrics", middleware.RBAC(models.RoleAdmin), metricsHandler.Snapshot)

	if cfg.Reports.Enabled {
		if err := wireReports(ctx, r, authed, cfg, db, analyticsService, metricsService, logr); err != nil {
			logr.Sugar().Fatalw("report subsystem init failed", "error", err)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func wireReports(ctx context.Context, r *gin.Engine, authed *gin.RouterGroup, cfg *config.Config, db *sqlx.DB, analyticsService *service.AnalyticsService, metricsService *service.MetricsService, logr *zap.Logger) error {
	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return err
	}
	signer, err := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	if err != nil {
		return err
	}

	reportRepo := repository.NewReportRepository(db)
	exportService := service.NewExportService()

	var reportService *service.ReportService
	queue := jobs.NewQueue("reports", func(ctx context.Context, job jobs.Job) error {
		return reportService.Process(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})

	reportService = service.NewReportService(service.ReportServiceParams{
		Reports:   reportRepo,
		Analytics: analyticsService,
		Renderer:  exportService,
		Storage:   store,
		Signer:    signer,
		Queue:     queue,
		Metrics:   metricsService,
		Logger:    logr,
		Config: service.ReportServiceConfig{
			DownloadPathPrefix: cfg.APIPrefix + "/export",
		},
	})

	queue.Start(ctx)
	if err := reportService.RecoverPendingJobs(ctx); err != nil {
		logr.Warn("pending report recovery failed", zap.Error(err))
	}
	reportService.StartCleanup(ctx, cfg.Reports.CleanupInterval)

	reportHandler := handler.NewReportHandler(reportService, store, signer)
	authed.POST("/reports", reportHandler.Create)
	authed.GET("/reports/:id", reportHandler.Status)
	r.GET(cfg.APIPrefix+"/export/:token", reportHandler.Download)

	return nil
}
