package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/activity-portal-api/internal/config"
	"github.com/campushub/activity-portal-api/internal/database"
	"github.com/campushub/activity-portal-api/internal/handler"
	"github.com/campushub/activity-portal-api/internal/middleware"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/repository"
	"github.com/campushub/activity-portal-api/internal/router"
	"github.com/campushub/activity-portal-api/internal/scope"
	"github.com/campushub/activity-portal-api/internal/service"
	cloud "github.com/campushub/activity-portal-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Activity{}, &models.AuditLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	resolver := scope.NewResolver(userRepo)

	auditService := service.NewAuditService(auditRepo, validate, logger)
	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	activityService := service.NewActivityService(activityRepo, userRepo, resolver, validate, uploader, auditService, logger)
	userService := service.NewUserService(userRepo, activityRepo, resolver, validate, auditService, logger)
	reportService := service.NewReportService(userRepo, activityRepo, redisClient, cfg.ReportCacheTTL, validate, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	auditHandler := handler.NewAuditHandler(auditService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:     authHandler,
		ActivityHandler: activityHandler,
		UserHandler:     userHandler,
		ReportHandler:   reportHandler,
		AuditHandler:    auditHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
