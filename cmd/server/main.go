package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spardha-tech/spardha-backend/internal/config"
	"github.com/spardha-tech/spardha-backend/internal/database"
	"github.com/spardha-tech/spardha-backend/internal/handler"
	"github.com/spardha-tech/spardha-backend/internal/logger"
	"github.com/spardha-tech/spardha-backend/internal/notify"
	"github.com/spardha-tech/spardha-backend/internal/repository"
	"github.com/spardha-tech/spardha-backend/internal/router"
	"github.com/spardha-tech/spardha-backend/internal/schedule"
	"github.com/spardha-tech/spardha-backend/internal/scoring"
	"github.com/spardha-tech/spardha-backend/internal/service"
	"github.com/spardha-tech/spardha-backend/internal/session"
	"github.com/spardha-tech/spardha-backend/internal/validator"
	"github.com/spardha-tech/spardha-backend/internal/worker"
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
		Msg("Starting Spardha Backend")

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
	participantRepo := repository.NewParticipantRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	miragePageRepo := repository.NewMiragePageRepository(pool)

	// ─── Initialize Core Components ────────────────────────────────────
	clock := schedule.CanonicalClock{Development: cfg.IsDevelopment()}
	store := session.NewRedisStore(rdb)
	judge := scoring.NewCohereJudge(cfg.JudgeBaseURL, cfg.JudgeAPIKey, cfg.JudgeModel, cfg.JudgeTimeout)
	mailer := notify.NewMailer(cfg)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	quizService := service.NewQuizService(quizRepo, questionRepo, rdb)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, quizRepo, participantRepo, mailer)
	sessionService := service.NewSessionService(quizRepo, enrollmentRepo, store, clock)
	submissionService := service.NewSubmissionService(
		quizService, enrollmentRepo, submissionRepo, miragePageRepo,
		store, clock, judge, rdb,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, participantRepo),
		Portal:    handler.NewPortalHandler(quizService, enrollmentService, sessionService, submissionService),
		Organizer: handler.NewOrganizerHandler(quizService, submissionService),
		WS:        handler.NewWSHandler(rdb, sessionService, submissionService, clock, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	proctorWorker := worker.NewProctorWorker(pool, rdb, log)
	submissionWorker := worker.NewSubmissionWorker(pool, rdb, log)

	go proctorWorker.Start(workerCtx)
	go submissionWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

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
