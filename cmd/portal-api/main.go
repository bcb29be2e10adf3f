package main

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/colegio-altavista/portal-api/api/swagger"
	"github.com/colegio-altavista/portal-api/internal/handler"
	"github.com/colegio-altavista/portal-api/internal/repository"
	"github.com/colegio-altavista/portal-api/internal/router"
	"github.com/colegio-altavista/portal-api/internal/service"
	"github.com/colegio-altavista/portal-api/pkg/cache"
	"github.com/colegio-altavista/portal-api/pkg/config"
	"github.com/colegio-altavista/portal-api/pkg/database"
	"github.com/colegio-altavista/portal-api/pkg/export"
	"github.com/colegio-altavista/portal-api/pkg/logger"
	"github.com/colegio-altavista/portal-api/pkg/storage"
)

// @title Portal Escolar API
// @version 1.0.0
// @description School portal backend: accounts, classes, coursework, attendance and announcements
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The dashboard cache degrades to no-op without redis.
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	classRepo := repository.NewClassRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userService := service.NewUserService(profileRepo, userRepo, validate, logr)
	catalogService := service.NewCatalogService(periodRepo, classRepo, userRepo, cacheRepo, validate, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, classRepo, userRepo, cacheRepo, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, classRepo, userRepo, cacheRepo, validate, logr)
	newsService := service.NewNewsService(newsRepo, cacheRepo, validate, logr)
	notificationService := service.NewNotificationService(notificationRepo, cacheRepo, validate, logr)
	dashboardService := service.NewDashboardService(
		periodRepo,
		classRepo,
		assignmentRepo,
		notificationRepo,
		newsRepo,
		cacheRepo,
		service.DashboardConfig{
			CacheEnabled: cfg.Dashboard.CacheEnabled,
			CacheTTL:     cfg.Dashboard.CacheTTL,
		},
		logr,
	)
	exportService := service.NewExportService(
		attendanceService,
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		service.ExportConfig{MaxRangeDays: cfg.Exports.MaxRangeDays},
		logr,
	)
	metricsService := service.NewMetricsService()
	dashboardService.SetMetrics(metricsService)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
		User:         handler.NewUserHandler(userService),
		Catalog:      handler.NewCatalogHandler(catalogService),
		Assignment:   handler.NewAssignmentHandler(assignmentService, store, cfg.Uploads),
		Attendance:   handler.NewAttendanceHandler(attendanceService),
		News:         handler.NewNewsHandler(newsService),
		Notification: handler.NewNotificationHandler(notificationService),
		File:         handler.NewFileHandler(store, signer, cfg.Uploads),
		Export:       handler.NewExportHandler(exportService),
		Metrics:      handler.NewMetricsHandler(metricsService, db, redisClient),
	}

	r := router.New(cfg, logr, authService, metricsService, userRepo, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
