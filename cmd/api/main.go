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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codenest-edu/grader-api/internal/config"
	"github.com/codenest-edu/grader-api/internal/database"
	"github.com/codenest-edu/grader-api/internal/handler"
	"github.com/codenest-edu/grader-api/internal/middleware"
	"github.com/codenest-edu/grader-api/internal/models"
	"github.com/codenest-edu/grader-api/internal/repository"
	"github.com/codenest-edu/grader-api/internal/router"
	"github.com/codenest-edu/grader-api/internal/service"
	"github.com/codenest-edu/grader-api/pkg/sandbox"
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
		&models.Problem{},
		&models.Submission{},
		&models.ProblemMapping{},
		&models.ActivationNode{},
		&models.ProblemAnalytics{},
		&models.LearnerProfile{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer cache.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	var problemRepo repository.ProblemRepository
	if cfg.UseMemoryProblems {
		problemRepo = repository.NewMemoryProblemRepository(repository.SeedProblems()...)
		logger.Warn().Msg("using in-memory problem catalog")
	} else {
		problemRepo = repository.NewProblemRepository(db)
	}

	submissionRepo := repository.NewSubmissionRepository(db)
	mappingRepo := repository.NewProblemMappingRepository(db)
	activationRepo := repository.NewActivationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	profileRepo := repository.NewLearnerProfileRepository(db)

	runner, err := sandbox.NewProcessRunner(sandbox.Config{
		InterpreterPath: cfg.InterpreterPath,
		InterpreterArgs: []string{"-u"},
		WorkspaceRoot:   cfg.SandboxRoot,
		Timeout:         cfg.ExecutionTimeout,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("failed to create sandbox runner: %v", err)
	}

	masteryService := service.NewMasteryService(mappingRepo, activationRepo, logger)
	qualityService := service.NewQualityService(submissionRepo, analyticsRepo, service.QualityConfig{
		MinSamples: cfg.QualityMinSamples,
	}, logger)
	profilingService := service.NewProfilingService(submissionRepo, profileRepo, logger)
	sampler := service.NewRandomSampler(cfg.QualitySampleRate)

	gradingService := service.NewGradingService(
		problemRepo, submissionRepo, runner,
		masteryService, qualityService, profilingService,
		sampler, validate, logger,
		service.GradingConfig{
			TestTimeout:   cfg.ExecutionTimeout,
			EntryFileName: cfg.EntryFileName,
		},
	)

	problemService, err := service.NewProblemService(problemRepo, cache, cfg.ProblemCacheTTL, validate, logger)
	if err != nil {
		log.Fatalf("failed to create problem service: %v", err)
	}

	problemHandler := handler.NewProblemHandler(problemService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ProblemHandler: problemHandler,
		GradingHandler: gradingHandler,
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
