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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classly/classly-api/internal/config"
	"github.com/classly/classly-api/internal/database"
	"github.com/classly/classly-api/internal/handler"
	"github.com/classly/classly-api/internal/middleware"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/repository"
	"github.com/classly/classly-api/internal/router"
	"github.com/classly/classly-api/internal/service"
	"github.com/classly/classly-api/pkg/ai"
	cloud "github.com/classly/classly-api/pkg/cloudinary"
	"github.com/classly/classly-api/pkg/ocr"
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

	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassMembership{},
		&models.Assignment{},
		&models.Submission{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, event publishing disabled")
		} else {
			defer natsConn.Drain()
		}
	}

	store, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	grader := buildGrader(cfg, logger)
	ocrClient := ocr.New(cfg.OCRPredictionURL, cfg.OCRTimeout, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewEventPublisher(natsConn, logger)
	activity := service.NewActivityRecorder(activityRepo, logger)

	authService := service.NewAuthService(userRepo, service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, validate, logger)
	classService := service.NewClassService(classRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classService, store, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, classService, store, activity, events, validate, logger)
	gradingService := service.NewGradingService(assignmentRepo, submissionRepo, store, grader, ocrClient, activity, events, logger)
	dashboardService := service.NewStudentDashboardService(classRepo, assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)

	authHandler := handler.NewAuthHandler(authService, userRepo, logger)
	classHandler := handler.NewClassHandler(classService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	dashboardHandler := handler.NewStudentDashboardHandler(dashboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    32 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:             authHandler,
		ClassHandler:            classHandler,
		AssignmentHandler:       assignmentHandler,
		SubmissionHandler:       submissionHandler,
		GradingHandler:          gradingHandler,
		StudentDashboardHandler: dashboardHandler,
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildGrader(cfg config.Config, logger zerolog.Logger) ai.Grader {
	switch cfg.GradingProvider {
	case "gemini":
		return ai.NewGeminiGrader(ai.GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.GeminiModel,
			MaxTokens: cfg.GradingMaxTokens,
			Timeout:   cfg.GradingTimeout,
			Logger:    logger,
		})
	default:
		return ai.NewOpenRouterGrader(ai.OpenRouterConfig{
			APIKey:    cfg.OpenRouterAPIKey,
			Model:     cfg.OpenRouterModel,
			BaseURL:   cfg.OpenRouterURL,
			MaxTokens: cfg.GradingMaxTokens,
			Timeout:   cfg.GradingTimeout,
			Logger:    logger,
		})
	}
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
