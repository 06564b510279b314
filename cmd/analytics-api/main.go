package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/course-analytics-api/api/swagger"
	"github.com/noah-isme/course-analytics-api/internal/handler"
	"github.com/noah-isme/course-analytics-api/internal/middleware"
	"github.com/noah-isme/course-analytics-api/internal/models"
	"github.com/noah-isme/course-analytics-api/internal/repository"
	"github.com/noah-isme/course-analytics-api/internal/service"
	"github.com/noah-isme/course-analytics-api/pkg/cache"
	"github.com/noah-isme/course-analytics-api/pkg/config"
	"github.com/noah-isme/course-analytics-api/pkg/database"
	"github.com/noah-isme/course-analytics-api/pkg/export"
	"github.com/noah-isme/course-analytics-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-analytics-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-analytics-api/pkg/middleware/requestid"
)

// @title Course Analytics API
// @version 1.0.0
// @description Per-user course analytics aggregation and reporting
// @BasePath /api/v1
// @schemes http
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Analytics.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("redis connection failed", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled)

	validate := validator.New()

	courseRepo := repository.NewCourseRepository(db)
	capabilityRepo := repository.NewCapabilityRepository(db)
	userRepo := repository.NewUserRepository(db)
	jobProfileRepo := repository.NewJobProfileRepository(db)

	analyticsService := service.NewAnalyticsService(
		courseRepo,
		capabilityRepo,
		repository.NewAssignmentRepository(db),
		repository.NewInteractiveContentRepository(db),
		repository.NewLiveSessionRepository(db),
		repository.NewForumRepository(db),
		repository.NewAttendanceRepository(db),
		repository.NewCompetencyRepository(db),
		repository.NewBadgeRepository(db),
		repository.NewBehaviorRepository(db),
		repository.NewTAEvaluationRepository(db),
		cacheService,
		metricsService,
		logr,
		cfg.Analytics.CacheTTL,
	)
	exportService := service.NewExportService(export.NewCSVExporter(), export.NewPDFExporter(), metricsService, logr)
	jobProfileService := service.NewJobProfileService(jobProfileRepo, cacheService, logr)
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "course-analytics-api",
	})

	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	reportHandler := handler.NewReportHandler(analyticsService, exportService, cfg.Exports.PDFEnabled)
	jobProfileHandler := handler.NewJobProfileHandler(jobProfileService, validate)
	authHandler := handler.NewAuthHandler(authService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		}

		staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor, models.RoleAssistant)

		protected := api.Group("")
		protected.Use(middleware.JWT(authService))
		{
			protected.GET("/report", staff, reportHandler.Report)

			courses := protected.Group("/courses/:id")
			{
				courses.GET("/analytics", staff, analyticsHandler.Comprehensive)
				courses.GET("/users/:userid/report", middleware.RBAC(
					string(models.RoleAdmin), string(models.RoleInstructor), string(models.RoleAssistant), "SELF",
				), analyticsHandler.UserReport)

				if cfg.JobProfile.Enabled {
					courses.GET("/jobprofile", staff, jobProfileHandler.Get)
					courses.PUT("/jobprofile", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), jobProfileHandler.Save)
				}
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
