// @title Study Quiz API
// @version 1.0
// @description Generates study quizzes from learning materials and records scores.
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "studyquiz/cmd/api/docs"
	"studyquiz/internal/adapter"
	"studyquiz/internal/adapter/llm"
	"studyquiz/internal/adapter/quizgen"
	"studyquiz/internal/cache"
	"studyquiz/internal/config"
	"studyquiz/internal/database"
	"studyquiz/internal/domain"
	"studyquiz/internal/handler"
	"studyquiz/internal/logger"
	"studyquiz/internal/repository"
	"studyquiz/internal/service"
	"studyquiz/internal/telemetry"

	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logger.Get()
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server exited with error", zap.Error(err))
		_ = logger.Sync()
		log.Fatal(err)
	}
	appLogger.Info("Server exited gracefully")
}

func run(cfg *config.Config, appLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Logger.Env)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			appLogger.Warn("Failed to flush tracer", zap.Error(err))
		}
	}()

	db, err := database.NewDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if cfg.DB.Driver == database.DriverSQLite {
		// sqlite databases are local and created on demand.
		if err := database.RunMigrations(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	completer, err := llm.NewCompleter(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("create LLM completer: %w", err)
	}
	generator, err := quizgen.NewGenerator(completer, cfg.Generator)
	if err != nil {
		return fmt.Errorf("create question generator: %w", err)
	}
	appLogger.Info("Question generator initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Strings("question_types", cfg.Generator.QuestionTypes))

	checks := map[string]handler.PingFunc{
		"database": db.PingContext,
	}

	var quizRepository domain.QuizRepository = repository.NewQuizDatabaseAdapter(db)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
		quizRepository = repository.NewCachedQuizRepository(quizRepository, cacheAdapter, cfg.Redis.QuizTTL)
		checks["redis"] = cacheAdapter.Ping
		appLogger.Info("Quiz cache enabled", zap.String("address", cfg.Redis.Address), zap.Duration("ttl", cfg.Redis.QuizTTL))
	}

	quizService := service.NewQuizService(quizRepository, generator)
	quizHandler := handler.NewQuizHandler(quizService)
	healthHandler := handler.NewHealthHandler(cfg.LLM.Provider, checks)

	app := handler.NewApp(cfg.Server)
	app.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(app, quizHandler, healthHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		return app.Listen(":" + strconv.Itoa(cfg.Server.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
