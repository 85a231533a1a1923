package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/config"
	"github.com/noah-isme/ajarin-go-api/internal/database"
	"github.com/noah-isme/ajarin-go-api/internal/handler"
	"github.com/noah-isme/ajarin-go-api/internal/middleware"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
	"github.com/noah-isme/ajarin-go-api/internal/router"
	"github.com/noah-isme/ajarin-go-api/internal/service"
	cloud "github.com/noah-isme/ajarin-go-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	logger = logger.With().Str("service", cfg.AppName).Logger()

	ctx := context.Background()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, certificate cache disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, notifications stay in-app only")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create cloudinary client")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	access := service.NewCourseAccess(courseRepo)
	uploadService := service.NewUploadService(uploader, uploadRepo, cfg.UploadMaxSizeMB, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, natsConn, cfg.NotificationSubject, validate, logger)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, validate, logger)
	courseService := service.NewCourseService(courseRepo, materialRepo, userRepo, access, uploadService, validate, logger)
	progressService := service.NewProgressService(progressRepo, materialRepo, access, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, access, uploadService, activityService, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, access, uploadService, notificationService, activityService, validate, logger)
	certificateService := service.NewCertificateService(
		certificateRepo,
		userRepo,
		materialRepo,
		access,
		progressService,
		notificationService,
		activityService,
		redisClient,
		cfg.CertificateCacheTTL,
		logger,
	)
	discussionService := service.NewDiscussionService(discussionRepo, materialRepo, userRepo, access, notificationService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:          handler.NewAuthHandler(authService, logger),
		CourseHandler:        handler.NewCourseHandler(courseService, progressService, logger),
		ProgressHandler:      handler.NewProgressHandler(progressService, logger),
		AssignmentHandler:    handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:    handler.NewSubmissionHandler(submissionService, logger),
		CertificateHandler:   handler.NewCertificateHandler(certificateService, logger),
		DiscussionHandler:    handler.NewDiscussionHandler(discussionService, logger),
		NotificationHandler:  handler.NewNotificationHandler(notificationService, logger),
		UploadHandler:        handler.NewUploadHandler(uploadService, logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, logger),
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
		AuthLimiter:          middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow),
		HealthProbes:         healthProbes(db, redisClient),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) []handler.HealthProbe {
	probes := []handler.HealthProbe{{
		Name: "database",
		Ping: func(ctx context.Context) error { return database.PingDB(ctx, db) },
	}}
	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
