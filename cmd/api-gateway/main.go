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

	_ "github.com/garda-ops/gms-api/api/swagger"
	"github.com/garda-ops/gms-api/internal/console"
	"github.com/garda-ops/gms-api/internal/handler"
	"github.com/garda-ops/gms-api/internal/lifecycle"
	"github.com/garda-ops/gms-api/internal/middleware"
	"github.com/garda-ops/gms-api/internal/models"
	"github.com/garda-ops/gms-api/internal/repository"
	"github.com/garda-ops/gms-api/internal/service"
	"github.com/garda-ops/gms-api/pkg/cache"
	"github.com/garda-ops/gms-api/pkg/config"
	"github.com/garda-ops/gms-api/pkg/database"
	"github.com/garda-ops/gms-api/pkg/logger"
	corsmiddleware "github.com/garda-ops/gms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/garda-ops/gms-api/pkg/middleware/requestid"
	"github.com/garda-ops/gms-api/pkg/storage"
)

// @title Garda Ops API
// @version 1.0.0
// @description Back-office console for guard workforce operations
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, list cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ListTTL, logr, true)
		}
	}

	policy := lifecycle.NewPolicy()

	userRepo := repository.NewUserRepository(db)
	guardRepo := repository.NewGuardRepository(db)
	clientRepo := repository.NewClientRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "gms-api",
	})
	guardSvc := service.NewGuardService(guardRepo, cacheSvc, validate, logr)
	clientSvc := service.NewClientService(clientRepo, cacheSvc, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, policy, cacheSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, policy, cacheSvc, validate, logr)
	incidentSvc := service.NewIncidentService(incidentRepo, policy, cacheSvc, validate, logr)
	complaintSvc := service.NewComplaintService(complaintRepo, policy, cacheSvc, validate, logr)
	expenseSvc := service.NewExpenseService(expenseRepo, policy, cacheSvc, validate, logr)

	gateways := map[lifecycle.Kind]console.Gateway{
		lifecycle.KindGuard:      service.NewGuardGateway(guardSvc, cacheSvc, logr),
		lifecycle.KindClient:     service.NewClientGateway(clientSvc, cacheSvc, logr),
		lifecycle.KindAssignment: service.NewAssignmentGateway(assignmentSvc, cacheSvc, logr),
		lifecycle.KindAttendance: service.NewAttendanceGateway(attendanceSvc, cacheSvc, logr),
		lifecycle.KindIncident:   service.NewIncidentGateway(incidentSvc, cacheSvc, logr),
		lifecycle.KindComplaint:  service.NewComplaintGateway(complaintSvc, cacheSvc, logr),
		lifecycle.KindExpense:    service.NewExpenseGateway(expenseSvc, cacheSvc, logr),
	}

	registry := console.NewRegistry(gateways, policy, logr, console.RegistryConfig{
		SessionTTL:     cfg.Console.SessionTTL,
		SweepInterval:  cfg.Console.SweepInterval,
		ConfirmTimeout: cfg.Console.ConfirmTimeout,
		PageSize:       cfg.Console.DefaultPageSize,
		Notifier: console.NotifierFunc(func(n console.Notification) {
			if n.Kind == console.NotificationExpired {
				metricsSvc.RecordExpiredConfirmation()
			}
			logr.Info("console notification",
				zap.String("kind", string(n.Kind)),
				zap.String("message", n.Message))
		}),
	})
	registry.StartSweeper()
	defer registry.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(guardRepo, assignmentRepo, incidentRepo, expenseRepo, files, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
			Workers:   cfg.Exports.WorkerConcurrency,
		}, logr)
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
		go exportCleanupLoop(ctx, exportSvc, cfg.Exports.CleanupInterval, logr)
	}

	router := buildRouter(cfg, logr, routerDeps{
		auth:        handler.NewAuthHandler(authSvc),
		guards:      handler.NewGuardHandler(guardSvc),
		clients:     handler.NewClientHandler(clientSvc),
		assignments: handler.NewAssignmentHandler(assignmentSvc),
		attendance:  handler.NewAttendanceHandler(attendanceSvc),
		incidents:   handler.NewIncidentHandler(incidentSvc),
		complaints:  handler.NewComplaintHandler(complaintSvc),
		expenses:    handler.NewExpenseHandler(expenseSvc),
		consoles:    handler.NewConsoleHandler(registry, metricsSvc),
		exports:     exportHandlerOrNil(exportSvc),
		metrics:     handler.NewMetricsHandler(metricsSvc),
		authSvc:     authSvc,
		metricsSvc:  metricsSvc,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routerDeps struct {
	auth        *handler.AuthHandler
	guards      *handler.GuardHandler
	clients     *handler.ClientHandler
	assignments *handler.AssignmentHandler
	attendance  *handler.AttendanceHandler
	incidents   *handler.IncidentHandler
	complaints  *handler.ComplaintHandler
	expenses    *handler.ExpenseHandler
	consoles    *handler.ConsoleHandler
	exports     *handler.ExportHandler
	metrics     *handler.MetricsHandler
	authSvc     *service.AuthService
	metricsSvc  *service.MetricsService
}

func buildRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metricsSvc))

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Health)
	r.GET("/metrics", deps.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", deps.auth.Login)
	auth.POST("/refresh", deps.auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.authSvc))

	protected.POST("/auth/logout", deps.auth.Logout)
	protected.POST("/auth/change-password", deps.auth.ChangePassword)
	protected.GET("/auth/me", deps.auth.Me)
	protected.GET("/metrics/summary", deps.metrics.Snapshot)

	adminOnly := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	guards := protected.Group("/guards")
	guards.GET("", deps.guards.List)
	guards.POST("", deps.guards.Create)
	guards.GET("/:id", deps.guards.Get)
	guards.PUT("/:id", deps.guards.Update)
	guards.PATCH("/:id/active", deps.guards.SetActive)
	guards.DELETE("/:id", adminOnly, deps.guards.Delete)

	clients := protected.Group("/clients")
	clients.GET("", deps.clients.List)
	clients.POST("", deps.clients.Create)
	clients.GET("/:id", deps.clients.Get)
	clients.PUT("/:id", deps.clients.Update)
	clients.PATCH("/:id/active", deps.clients.SetActive)
	clients.DELETE("/:id", adminOnly, deps.clients.Delete)

	assignments := protected.Group("/assignments")
	assignments.GET("", deps.assignments.List)
	assignments.POST("", deps.assignments.Create)
	assignments.GET("/:id", deps.assignments.Get)
	assignments.PUT("/:id", deps.assignments.Update)
	assignments.PATCH("/:id/status", deps.assignments.ChangeStatus)
	assignments.GET("/:id/actions", deps.assignments.Actions)
	assignments.DELETE("/:id", adminOnly, deps.assignments.Delete)

	attendance := protected.Group("/attendance")
	attendance.GET("", deps.attendance.List)
	attendance.POST("", deps.attendance.Create)
	attendance.GET("/:id", deps.attendance.Get)
	attendance.PATCH("/:id/status", deps.attendance.ChangeStatus)
	attendance.DELETE("/:id", adminOnly, deps.attendance.Delete)

	incidents := protected.Group("/incidents")
	incidents.GET("", deps.incidents.List)
	incidents.POST("", deps.incidents.Create)
	incidents.GET("/:id", deps.incidents.Get)
	incidents.PATCH("/:id/status", deps.incidents.ChangeStatus)
	incidents.DELETE("/:id", adminOnly, deps.incidents.Delete)

	complaints := protected.Group("/complaints")
	complaints.GET("", deps.complaints.List)
	complaints.POST("", deps.complaints.Create)
	complaints.GET("/:id", deps.complaints.Get)
	complaints.PATCH("/:id/status", deps.complaints.ChangeStatus)
	complaints.PATCH("/:id/visibility", deps.complaints.SetVisibility)
	complaints.DELETE("/:id", adminOnly, deps.complaints.Delete)

	expenses := protected.Group("/expenses")
	expenses.GET("", deps.expenses.List)
	expenses.POST("", deps.expenses.Create)
	expenses.GET("/:id", deps.expenses.Get)
	expenses.PATCH("/:id/decision", deps.expenses.Decide)
	expenses.DELETE("/:id", adminOnly, deps.expenses.Delete)

	consoles := protected.Group("/console/sessions")
	consoles.POST("", deps.consoles.Open)
	consoles.DELETE("/:sid", deps.consoles.CloseSession)
	consoles.GET("/:sid/page", deps.consoles.Page)
	consoles.PUT("/:sid/filters", deps.consoles.SetFilter)
	consoles.PUT("/:sid/search", deps.consoles.SetSearch)
	consoles.POST("/:sid/refresh", deps.consoles.Refresh)
	consoles.GET("/:sid/selection", deps.consoles.Selection)
	consoles.PUT("/:sid/selection", deps.consoles.SelectOne)
	consoles.PUT("/:sid/selection/all", deps.consoles.SelectAll)
	consoles.GET("/:sid/rows/:id/actions", deps.consoles.RowActions)
	consoles.POST("/:sid/commands", deps.consoles.RequestCommand)
	consoles.POST("/:sid/commands/:token/confirm", deps.consoles.ConfirmCommand)
	consoles.DELETE("/:sid/commands/:token", deps.consoles.CancelCommand)

	if deps.exports != nil {
		exports := protected.Group("/exports")
		exports.POST("", deps.exports.Submit)
		exports.GET("/jobs/:id", deps.exports.Status)
		// downloads carry their own signed token, no JWT required
		api.GET("/exports/download/:token", deps.exports.Download)
	}

	return r
}

func exportHandlerOrNil(svc *service.ExportService) *handler.ExportHandler {
	if svc == nil {
		return nil
	}
	return handler.NewExportHandler(svc)
}

func exportCleanupLoop(ctx context.Context, svc *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.Cleanup(0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("removed stale export files", zap.Int("count", len(removed)))
			}
		}
	}
}
