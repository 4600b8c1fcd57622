package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/worklane/hr-api/api/swagger"
	"github.com/worklane/hr-api/internal/handler"
	"github.com/worklane/hr-api/internal/middleware"
	"github.com/worklane/hr-api/internal/models"
	"github.com/worklane/hr-api/internal/repository"
	"github.com/worklane/hr-api/internal/service"
	"github.com/worklane/hr-api/pkg/cache"
	"github.com/worklane/hr-api/pkg/config"
	"github.com/worklane/hr-api/pkg/database"
	"github.com/worklane/hr-api/pkg/logger"
	corsmiddleware "github.com/worklane/hr-api/pkg/middleware/cors"
	reqidmiddleware "github.com/worklane/hr-api/pkg/middleware/requestid"
)

// @title Worklane HR API
// @version 0.1.0
// @description Attendance and leave accounting service
// @BasePath /
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
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	schedule, err := service.NewShiftSchedule(cfg.Shifts)
	if err != nil {
		logr.Sugar().Fatalw("invalid shift schedule configuration", "error", err)
	}

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Attendance.CacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Attendance.CacheTTL, logr, true)
	}

	attendanceRepo := repository.NewAttendanceRepository(db)
	breakRepo := repository.NewBreakRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	workerRepo := repository.NewWorkerRepository(db)

	authSvc := service.NewAuthService(workerRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, breakRepo, workerRepo,
		schedule, cacheSvc, validate, logr, cfg.Attendance, cfg.Shifts.OvertimeTolerance)
	leaveSvc := service.NewLeaveService(leaveRepo, cacheSvc, validate, logr, cfg.Leave)
	exportSvc := service.NewExportService(attendanceRepo, metricsSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	reportHandler := handler.NewReportHandler(exportSvc)
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

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	attendance := protected.Group("/attendance")
	attendance.POST("/clock-in", attendanceHandler.ClockIn)
	attendance.GET("/today", attendanceHandler.Today)
	attendance.GET("", attendanceHandler.List)
	attendance.POST("/:id/break", attendanceHandler.StartBreak)
	attendance.POST("/:id/resume", attendanceHandler.Resume)
	attendance.POST("/:id/clock-out", attendanceHandler.ClockOut)

	leave := protected.Group("/leaves")
	leave.POST("", leaveHandler.Request)

	approvals := leave.Group("")
	approvals.Use(middleware.RequireRole(models.RoleAdmin, models.RoleManager))
	approvals.POST("/:id/approve", leaveHandler.Approve)
	approvals.DELETE("/:id", leaveHandler.Reject)
	approvals.POST("/bulk-approve", leaveHandler.BulkApprove)
	approvals.POST("/bulk-reject", leaveHandler.BulkReject)

	reports := protected.Group("/reports")
	reports.GET("/timesheet", reportHandler.Timesheet)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
