package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fluentprep/fluentprep-backend/internal/config"
	"github.com/fluentprep/fluentprep-backend/internal/database"
	"github.com/fluentprep/fluentprep-backend/internal/engine"
	"github.com/fluentprep/fluentprep-backend/internal/handler"
	"github.com/fluentprep/fluentprep-backend/internal/logger"
	"github.com/fluentprep/fluentprep-backend/internal/oracle"
	"github.com/fluentprep/fluentprep-backend/internal/repository"
	"github.com/fluentprep/fluentprep-backend/internal/router"
	"github.com/fluentprep/fluentprep-backend/internal/service"
	"github.com/fluentprep/fluentprep-backend/internal/validator"
	"github.com/fluentprep/fluentprep-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting FluentPrep Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	testRepo := repository.NewTestRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	manager := engine.NewManager()
	timings := engine.Timings{
		LeadInSeconds:      cfg.LeadInSeconds,
		PartReadingSeconds: cfg.PartReadingSeconds,
		TickInterval:       time.Second,
	}

	oracleClient := oracle.New(cfg.OracleBaseURL, cfg.OracleAPIKey, cfg.OracleModel, log)

	testService := service.NewTestService(testRepo, rdb, log)
	sessionService := service.NewSessionService(manager, testService, attemptRepo, rdb, timings, log)
	attemptService := service.NewAttemptService(attemptRepo, submissionRepo, testService, log)
	writingService := service.NewWritingService(oracleClient, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:    handler.NewExamHandler(testService),
		Session: handler.NewSessionHandler(sessionService),
		Attempt: handler.NewAttemptHandler(attemptService, sessionService),
		Writing: handler.NewWritingHandler(writingService),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(pool, rdb, log)
	resultWorker := worker.NewResultWorker(pool, submissionRepo, rdb, log)

	go autosaveWorker.Start(workerCtx)
	go resultWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every test payload and answer key into Redis BEFORE accepting
	// traffic, so session starts never lazy-load under a thundering herd.
	if err := testService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
