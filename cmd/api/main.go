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

	_ "github.com/classdesk/classdesk-api/api/swagger"
	"github.com/classdesk/classdesk-api/internal/handler"
	"github.com/classdesk/classdesk-api/internal/middleware"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/repository"
	"github.com/classdesk/classdesk-api/internal/service"
	"github.com/classdesk/classdesk-api/pkg/cache"
	"github.com/classdesk/classdesk-api/pkg/config"
	"github.com/classdesk/classdesk-api/pkg/database"
	"github.com/classdesk/classdesk-api/pkg/extract"
	"github.com/classdesk/classdesk-api/pkg/logger"
	corsmiddleware "github.com/classdesk/classdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classdesk/classdesk-api/pkg/middleware/requestid"
	"github.com/classdesk/classdesk-api/pkg/plagiarism"
	"github.com/classdesk/classdesk-api/pkg/scan"
	"github.com/classdesk/classdesk-api/pkg/storage"
)

// @title ClassDesk API
// @version 1.0.0
// @description Classroom assignment submission service
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	artifactStore, err := storage.NewLocalStorage(cfg.Submissions.StorageDir)
	if err != nil {
		logr.Fatal("failed to init artifact storage", zap.Error(err))
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// cross-cutting services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Plagiarism.CacheTTL, logr, redisClient != nil)

	// domain services
	validate := validator.New()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "classdesk-api",
	})
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, userRepo, notificationSvc, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, submissionRepo, classroomSvc, logr)

	signer := storage.NewSignedURLSigner(cfg.Submissions.SignedURLSecret, cfg.Submissions.SignedURLTTL)
	extractor := extract.NewClient(cfg.Extractor.BaseURL, cfg.Extractor.Timeout)
	composer := scan.NewComposer(cfg.Submissions.MaxScanPages)
	submissionSvc := service.NewSubmissionService(
		assignmentRepo, classroomRepo, submissionRepo,
		extractor, artifactStore, composer, signer,
		metricsSvc, logr, cfg.Submissions,
	)

	checker := plagiarism.NewClient(cfg.Plagiarism.BaseURL, cfg.Plagiarism.Timeout)
	analysisSvc := service.NewAnalysisService(
		submissionRepo, checker, cacheSvc,
		func(ctx context.Context, actor *models.JWTClaims, assignmentID string) error {
			_, err := submissionSvc.ListForReview(ctx, actor, assignmentID)
			return err
		},
		logr, cfg.Plagiarism,
	)
	analysisSvc.Start(ctx)
	defer analysisSvc.Stop()

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	analysisHandler := handler.NewAnalysisHandler(analysisSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Submissions.MaxFileSizeBytes

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
			auth.PATCH("/me/avatar", middleware.JWT(authSvc), authHandler.UpdateAvatar)
		}

		classrooms := api.Group("/classrooms", middleware.JWT(authSvc))
		{
			classrooms.POST("", middleware.RequireRoles(models.RoleTeacher), classroomHandler.Create)
			classrooms.GET("", classroomHandler.List)
			classrooms.POST("/join", middleware.RequireRoles(models.RoleStudent), classroomHandler.Join)
			classrooms.GET("/:id", classroomHandler.Get)
			classrooms.POST("/:id/invites", middleware.RequireRoles(models.RoleTeacher), classroomHandler.Invite)
			classrooms.POST("/:id/assignments", middleware.RequireRoles(models.RoleTeacher), assignmentHandler.Create)
			classrooms.GET("/:id/assignments", assignmentHandler.ListByClassroom)
		}

		assignments := api.Group("/assignments", middleware.JWT(authSvc))
		{
			assignments.GET("/:id", assignmentHandler.Get)
			assignments.POST("/:id/submissions", middleware.RequireRoles(models.RoleStudent), submissionHandler.Upload)
			assignments.POST("/:id/submissions/scan", middleware.RequireRoles(models.RoleStudent), submissionHandler.Scan)
			assignments.GET("/:id/submissions", middleware.RequireRoles(models.RoleTeacher), submissionHandler.ListForReview)
			assignments.GET("/:id/submissions/mine", middleware.RequireRoles(models.RoleStudent), submissionHandler.GetOwn)
			assignments.GET("/:id/submissions/export", middleware.RequireRoles(models.RoleTeacher), submissionHandler.ExportReview)
			assignments.POST("/:id/analysis", middleware.RequireRoles(models.RoleTeacher), analysisHandler.Trigger)
			assignments.GET("/:id/analysis", middleware.RequireRoles(models.RoleTeacher), analysisHandler.Report)
		}

		// download links carry their own signature, no JWT required
		api.GET("/submissions/artifacts/:token", submissionHandler.DownloadArtifact)

		notifications := api.Group("/notifications", middleware.JWT(authSvc))
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/read", notificationHandler.MarkAllRead)
			notifications.POST("/:id/accept", notificationHandler.Accept)
			notifications.POST("/:id/decline", notificationHandler.Decline)
		}

		api.GET("/metrics/summary", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleTeacher), metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
