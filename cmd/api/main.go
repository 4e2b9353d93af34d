package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/akademik-api/internal/config"
	"github.com/noah-isme/akademik-api/internal/database"
	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/events"
	"github.com/noah-isme/akademik-api/internal/handler"
	"github.com/noah-isme/akademik-api/internal/middleware"
	"github.com/noah-isme/akademik-api/internal/repository"
	"github.com/noah-isme/akademik-api/internal/router"
	"github.com/noah-isme/akademik-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "akademik-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to access database pool")
	}
	defer sqlDB.Close()

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, transcript cache and redis events disabled")
		} else {
			defer redisClient.Close()
			probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, nats events disabled")
		} else {
			defer natsConn.Drain()
			probes["nats"] = func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("not connected")
				}
				return nil
			}
		}
	}

	validate := dto.NewValidator()
	publisher := events.NewBroker(redisClient, natsConn, cfg.EventsChannel, logger)

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	allocator, err := service.NewIdentifierAllocator(cfg.NIMStrategy, studentRepo, repository.NewNIMSequenceRepository(db), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build nim allocator")
	}

	activityService := service.NewActivityService(activityRepo, logger)
	transcriptService := service.NewTranscriptService(studentRepo, enrollmentRepo, redisClient, cfg.TranscriptCacheTTL, logger)
	studentService := service.NewStudentService(service.StudentServiceDeps{
		Repo:        studentRepo,
		Allocator:   allocator,
		Validator:   validate,
		Activity:    activityService,
		Publisher:   publisher,
		Transcripts: transcriptService,
		MaxAttempts: cfg.NIMMaxAttempts,
	}, logger)
	courseService := service.NewCourseService(courseRepo, validate, activityService, publisher, transcriptService, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, validate, activityService, publisher, transcriptService, logger)

	var writeGuard []fiber.Handler
	if cfg.AuthEnabled() {
		writeGuard = []fiber.Handler{
			middleware.JWTProtected(cfg.JWTSecret),
			middleware.RequireRole(cfg.WriteRoles...),
		}
	} else {
		logger.Warn().Msg("jwt secret not configured, write routes are unauthenticated")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:      handler.NewStudentHandler(studentService, transcriptService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(enrollmentService, logger),
		NIMHandler:          handler.NewNIMHandler(),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		HealthProbes:        probes,
		WriteGuard:          writeGuard,
		RegistrationLimiter: middleware.RateLimit("students", cfg.RegistrationLimit, time.Minute),
	})

	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddress()).
			Str("driver", cfg.DatabaseDriver).
			Str("nim_strategy", allocator.Strategy()).
			Msg("starting http server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
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
