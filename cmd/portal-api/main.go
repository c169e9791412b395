package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campushub/portal-api/api/swagger"
	"github.com/campushub/portal-api/internal/handler"
	"github.com/campushub/portal-api/internal/middleware"
	"github.com/campushub/portal-api/internal/models"
	"github.com/campushub/portal-api/internal/repository"
	"github.com/campushub/portal-api/internal/service"
	"github.com/campushub/portal-api/internal/store"
	"github.com/campushub/portal-api/pkg/cache"
	"github.com/campushub/portal-api/pkg/config"
	"github.com/campushub/portal-api/pkg/database"
	"github.com/campushub/portal-api/pkg/jobs"
	"github.com/campushub/portal-api/pkg/logger"
	corsmiddleware "github.com/campushub/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/portal-api/pkg/middleware/requestid"
	"github.com/campushub/portal-api/pkg/storage"
)

// @title CampusHub Portal API
// @version 1.0.0
// @description Campus portal backend: notices, assignments, resources, forum and attendance
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, list caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	forumRepo := repository.NewForumRepository(db)
	studentNoteRepo := repository.NewStudentNoteRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ListTTL, logr, cfg.Cache.Enabled)
	}

	sessions := store.NewManager(store.Repos{
		Notices:      noticeRepo,
		Assignments:  assignmentRepo,
		Resources:    resourceRepo,
		Forum:        forumRepo,
		StudentNotes: studentNoteRepo,
	}, cfg.Pins.SweepInterval, logr)
	sessions.SetObserver(metricsSvc)
	defer sessions.Shutdown()

	authSvc := service.NewAuthService(userRepo, sessions, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campushub-portal",
	})
	noticeSvc := service.NewNoticeService(sessions, noticeRepo, cacheSvc, userRepo, nil, logr)
	assignmentSvc := service.NewAssignmentService(sessions, userRepo, nil, logr)
	resourceSvc := service.NewResourceService(sessions, resourceRepo, cacheSvc, userRepo, nil, logr)
	forumSvc := service.NewForumService(sessions, userRepo, nil, logr)
	studentNoteSvc := service.NewStudentNoteService(sessions, userRepo, nil, logr)

	var attendanceHandler *handler.AttendanceHandler
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		worker := service.NewReportWorker(attendanceRepo, reportRepo, files, logr)
		reportQueue = jobs.NewQueue("attendance-reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(context.Background())
		defer reportQueue.Stop()

		attendanceSvc := service.NewAttendanceService(attendanceRepo, reportRepo, reportQueue, signer, files, nil, logr)
		attendanceHandler = handler.NewAttendanceHandler(attendanceSvc)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	resourceHandler := handler.NewResourceHandler(resourceSvc)
	forumHandler := handler.NewForumHandler(forumSvc)
	studentNoteHandler := handler.NewStudentNoteHandler(studentNoteSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	}

	notices := api.Group("/notices")
	{
		notices.GET("", middleware.OptionalJWT(authSvc), noticeHandler.List)
		notices.POST("", middleware.JWT(authSvc), middleware.Staff(), noticeHandler.Create)
		notices.DELETE("/:id", middleware.JWT(authSvc), noticeHandler.Delete)
		notices.POST("/:id/pin", middleware.JWT(authSvc), middleware.Staff(), noticeHandler.Pin)
		notices.DELETE("/:id/pin", middleware.JWT(authSvc), middleware.Staff(), noticeHandler.Unpin)
	}

	assignments := api.Group("/assignments", middleware.JWT(authSvc))
	{
		assignments.GET("", assignmentHandler.List)
		assignments.POST("", middleware.Staff(), assignmentHandler.Create)
		assignments.DELETE("/:id", assignmentHandler.Delete)
	}

	resources := api.Group("/resources")
	{
		resources.GET("", middleware.OptionalJWT(authSvc), resourceHandler.List)
		resources.POST("", middleware.JWT(authSvc), resourceHandler.Create)
		resources.POST("/:id/download", middleware.JWT(authSvc), resourceHandler.Download)
		resources.POST("/:id/like", middleware.JWT(authSvc), resourceHandler.Like)
		resources.POST("/:id/favorite", middleware.JWT(authSvc), resourceHandler.Favorite)
	}

	forum := api.Group("/forum/queries", middleware.JWT(authSvc))
	{
		forum.GET("", forumHandler.ListQueries)
		forum.GET("/:id", forumHandler.GetQuery)
		forum.POST("", forumHandler.CreateQuery)
		forum.POST("/:id/answers", forumHandler.CreateAnswer)
		forum.POST("/:id/like", forumHandler.ToggleLike)
		forum.POST("/:id/answers/:answerId/accept", forumHandler.AcceptAnswer)
		forum.DELETE("/:id", forumHandler.DeleteQuery)
	}

	studentNotes := api.Group("/students/:id/notes", middleware.JWT(authSvc), middleware.Staff())
	{
		studentNotes.GET("", studentNoteHandler.List)
		studentNotes.POST("", studentNoteHandler.Create)
	}

	if attendanceHandler != nil {
		attendance := api.Group("/attendance")
		{
			attendance.GET("/summary", middleware.JWT(authSvc), attendanceHandler.Summary)
			attendance.GET("/records", middleware.JWT(authSvc), attendanceHandler.Records)
			attendance.POST("/reports", middleware.JWT(authSvc), attendanceHandler.RequestReport)
			attendance.GET("/reports/download", attendanceHandler.Download)
			attendance.GET("/reports/:id", middleware.JWT(authSvc), attendanceHandler.ReportStatus)
		}
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/metrics", metricsHandler.Snapshot)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
