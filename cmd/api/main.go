package main

import (
	"context"
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
	"golang.org/x/crypto/bcrypt"

	_ "github.com/alphard-edu/exam-registration-api/api/swagger"
	"github.com/alphard-edu/exam-registration-api/internal/handler"
	"github.com/alphard-edu/exam-registration-api/internal/middleware"
	"github.com/alphard-edu/exam-registration-api/internal/repository"
	"github.com/alphard-edu/exam-registration-api/internal/service"
	"github.com/alphard-edu/exam-registration-api/pkg/cache"
	"github.com/alphard-edu/exam-registration-api/pkg/config"
	"github.com/alphard-edu/exam-registration-api/pkg/database"
	"github.com/alphard-edu/exam-registration-api/pkg/export"
	"github.com/alphard-edu/exam-registration-api/pkg/logger"
	"github.com/alphard-edu/exam-registration-api/pkg/mail"
	corsmiddleware "github.com/alphard-edu/exam-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/alphard-edu/exam-registration-api/pkg/middleware/requestid"
)

// @title Exam Registration API
// @version 1.0.0
// @description Public exam-registration intake and admin dashboard API
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Sugar().Fatalw("failed to bootstrap schema", "error", err)
	}

	adminRepo := repository.NewAdminRepository(db)
	if err := seedAdmin(ctx, adminRepo, cfg, logr); err != nil {
		logr.Sugar().Fatalw("failed to seed admin", "error", err)
	}

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	var notifier service.Notifier
	if cfg.Mail.APIKey != "" && cfg.Mail.From != "" {
		mailer := mail.NewResend(cfg.Mail.APIKey, cfg.Mail.From, cfg.Mail.Timeout)
		mailNotifier := service.NewMailNotifier(mailer, cfg.Mail.To, cfg.Mail.Workers, logr)
		mailNotifier.Start(ctx)
		defer mailNotifier.Stop()
		notifier = mailNotifier
	} else {
		logr.Info("mail notifications disabled (RESEND_API_KEY / RESEND_FROM unset)")
	}

	validate := validator.New()

	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "exam-registration-api",
	})

	submissionRepo := repository.NewSubmissionRepository(db)
	submissionSvc := service.NewSubmissionService(
		submissionRepo,
		notifier,
		cacheSvc,
		metricsSvc,
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		logr,
	)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	registerRoutes(r, cfg, authSvc, submissionSvc, metricsSvc)

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

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func registerRoutes(r *gin.Engine, cfg *config.Config, authSvc *service.AuthService, submissionSvc *service.SubmissionService, metricsSvc *service.MetricsService) {
	authHandler := handler.NewAuthHandler(authSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	adminHandler := handler.NewAdminHandler(submissionSvc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/submit", submissionHandler.Submit)

	admin := r.Group("/admin")
	admin.POST("/login", authHandler.Login)
	admin.POST("/refresh", authHandler.Refresh)
	admin.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	gated := admin.Group("", middleware.JWT(authSvc), middleware.AdminOnly(cfg.Admin.Email))
	gated.GET("/submissions", adminHandler.List)
	gated.GET("/submissions/stats", adminHandler.Stats)
	gated.GET("/submissions/export", adminHandler.Export)
	gated.PATCH("/submissions/:id", adminHandler.Update)
	gated.DELETE("/submissions/:id", adminHandler.Delete)
}

func seedAdmin(ctx context.Context, repo *repository.AdminRepository, cfg *config.Config, logr *zap.Logger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	created, err := repo.EnsureSeed(ctx, cfg.Admin.Email, string(hash))
	if err != nil {
		return err
	}
	if created {
		logr.Sugar().Infow("seeded admin account", "email", cfg.Admin.Email)
	}
	return nil
}
