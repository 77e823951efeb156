package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-sis-api/api/swagger"
	"github.com/noah-isme/campus-sis-api/internal/handler"
	"github.com/noah-isme/campus-sis-api/internal/middleware"
	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/internal/repository"
	"github.com/noah-isme/campus-sis-api/internal/service"
	"github.com/noah-isme/campus-sis-api/pkg/admissions"
	"github.com/noah-isme/campus-sis-api/pkg/cache"
	"github.com/noah-isme/campus-sis-api/pkg/config"
	"github.com/noah-isme/campus-sis-api/pkg/database"
	"github.com/noah-isme/campus-sis-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-sis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-sis-api/pkg/middleware/requestid"
)

// @title Campus SIS API
// @version 1.0.0
// @description Class scheduling and enrollment workflow for multi-campus schools
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

var (
	schedulerRoles = []models.UserRole{models.RoleRegistrar, models.RoleAdmin, models.RoleSuperAdmin}
	approverRoles  = []models.UserRole{models.RoleRegistrar, models.RoleDean, models.RoleAccounting, models.RoleAdmin, models.RoleSuperAdmin}
	adminRoles     = []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin}
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; running without cache", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reference.CacheTTL, logr, cfg.Reference.CacheEnabled && redisClient != nil)
	validate := validator.New()
	tx := database.NewTransactor(db)

	sessionRepo := repository.NewClassSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var notifier *service.AdmissionsNotifier
	if cfg.Admissions.BaseURL != "" {
		notifier = service.NewAdmissionsNotifier(admissions.NewClient(cfg.Admissions), cfg.Admissions, metricsSvc, logr)
		notifier.Start(ctx)
		defer notifier.Stop()
	} else {
		logr.Info("admissions base url not set; semester assignment notifications disabled")
	}

	authSvc := service.NewAuthService(cfg.JWT, logr)
	sessionSvc := service.NewClassSessionService(sessionRepo, semesterRepo, referenceRepo, auditRepo, tx, metricsSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, semesterRepo, auditRepo, tx, notifier, metricsSvc, cfg.Enrollment, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, auditRepo, tx, cacheSvc, cfg.Reference.CacheTTL, validate, logr)
	referenceSvc := service.NewReferenceService(referenceRepo, cacheSvc, cfg.Reference.CacheTTL, logr)
	studentSvc := service.NewStudentService(studentRepo, logr)
	statsSvc := service.NewStatsService(statsRepo, semesterRepo, cacheSvc, cfg.Stats.SnapshotTTL, metricsSvc, logr)

	if err := statsSvc.Start(cfg.Stats.RefreshCron); err != nil {
		return fmt.Errorf("schedule stats refresh: %w", err)
	}
	defer statsSvc.Stop()

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": handler.PingFunc(db.PingContext),
		"redis":    cacheRepo,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.EnableDocs && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	registerRoutes(api, routeHandlers{
		sessions:    handler.NewClassSessionHandler(sessionSvc),
		enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		semesters:   handler.NewSemesterHandler(semesterSvc),
		reference:   handler.NewReferenceHandler(referenceSvc),
		students:    handler.NewStudentHandler(studentSvc),
		stats:       handler.NewStatsHandler(statsSvc),
		metrics:     metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

type routeHandlers struct {
	sessions    *handler.ClassSessionHandler
	enrollments *handler.EnrollmentHandler
	semesters   *handler.SemesterHandler
	reference   *handler.ReferenceHandler
	students    *handler.StudentHandler
	stats       *handler.StatsHandler
	metrics     *handler.MetricsHandler
}

func registerRoutes(api *gin.RouterGroup, h routeHandlers) {
	sessions := api.Group("/class-sessions")
	sessions.GET("", h.sessions.List)
	sessions.GET("/:id", h.sessions.Get)
	sessions.POST("", middleware.RequireRoles(schedulerRoles...), h.sessions.Create)
	sessions.PATCH("/:id", middleware.RequireRoles(schedulerRoles...), h.sessions.Update)
	sessions.DELETE("/:id", middleware.RequireRoles(schedulerRoles...), h.sessions.Delete)
	sessions.POST("/availability", h.sessions.Availability)

	// track-level role checks live in the enrollment service
	enrollments := api.Group("/enrollments")
	enrollments.GET("", middleware.RequireRoles(approverRoles...), h.enrollments.List)
	enrollments.GET("/:id", middleware.RequireRoles(approverRoles...), h.enrollments.Get)
	enrollments.POST("", middleware.RequireRoles(schedulerRoles...), h.enrollments.Create)
	enrollments.PATCH("/:id/tracks/:track", middleware.RequireRoles(approverRoles...), h.enrollments.UpdateTrack)
	enrollments.POST("/:id/payment", middleware.RequireRoles(approverRoles...), h.enrollments.ConfirmPayment)
	enrollments.POST("/:id/final-approval", middleware.RequireRoles(approverRoles...), h.enrollments.FinalApproval)

	semesters := api.Group("/semesters")
	semesters.GET("", h.semesters.List)
	semesters.GET("/active", h.semesters.Active)
	semesters.GET("/:id", h.semesters.Get)
	semesters.GET("/:id/timetable", h.sessions.Timetable)
	semesters.POST("", middleware.RequireRoles(adminRoles...), h.semesters.Create)
	semesters.POST("/:id/activate", middleware.RequireRoles(adminRoles...), h.semesters.Activate)

	api.GET("/courses", h.reference.Courses)
	api.GET("/rooms", h.reference.Rooms)
	api.GET("/employees", h.reference.Employees)

	api.GET("/students/:id", middleware.RequireRoles(approverRoles...), h.students.Get)

	stats := api.Group("/stats", middleware.RequireRoles(approverRoles...))
	stats.GET("/departments", h.stats.Departments)
	stats.POST("/refresh", middleware.RequireRoles(adminRoles...), h.stats.Refresh)

	api.GET("/system/metrics", middleware.RequireRoles(adminRoles...), h.metrics.System)
}
