package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/broker"
	"github.com/stemsi/kodemy-backend/internal/cache"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/database"
	"github.com/stemsi/kodemy-backend/internal/gemini"
	"github.com/stemsi/kodemy-backend/internal/google"
	"github.com/stemsi/kodemy-backend/internal/handler"
	"github.com/stemsi/kodemy-backend/internal/logger"
	"github.com/stemsi/kodemy-backend/internal/middleware"
	"github.com/stemsi/kodemy-backend/internal/payment"
	"github.com/stemsi/kodemy-backend/internal/quizstore"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/router"
	"github.com/stemsi/kodemy-backend/internal/service"
	"github.com/stemsi/kodemy-backend/internal/validator"
	"github.com/stemsi/kodemy-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("db_driver", cfg.DBDriver).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Kodemy Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to the Database ───────────────────────────────────────
	db, closeDB, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer closeDB()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// ─── Initialize Infrastructure ─────────────────────────────────────
	courseCache := cache.NewCourseCache(rdb, cfg.CourseCacheTTL, logger.Component(log, "course_cache"))
	events := broker.New(rdb)
	gateway := payment.NewMidtrans(cfg.MidtransServerKey, cfg.ClientURL, cfg.MidtransProduction, logger.Component(log, "midtrans"))
	generator := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, logger.Component(log, "gemini"))
	quizzes := quizstore.New(cfg.QuizTTL, cfg.QuizReviewTTL, logger.Component(log, "quiz_store"))
	defer quizzes.Close()

	if cfg.GoogleClientID == "" {
		log.Warn().Msg("GOOGLE_CLIENT_ID is not set; Google sign-in will reject every token")
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set; quiz generation will fail")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, google.NewVerifier(cfg.GoogleClientID), log)
	userService := service.NewUserService(userRepo, log)
	courseService := service.NewCourseService(courseRepo, categoryRepo, reviewRepo, userRepo, courseCache, log)
	orderService := service.NewOrderService(orderRepo, courseRepo, userRepo, gateway, events, events, courseCache, log)
	quizService := service.NewQuizService(generator, quizzes, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(authService, userService),
		Course: handler.NewCourseHandler(courseService),
		Order:  handler.NewOrderHandler(orderService, log),
		Gemini: handler.NewGeminiHandler(quizService),
		WS:     handler.NewWSHandler(orderService, events, log, cfg.AllowedOrigins),
		SSE:    handler.NewSSEHandler(orderService, events, log),
	}

	geminiLimiter := middleware.NewRateLimiter(cfg.GeminiRatePerMinute, time.Minute)
	defer geminiLimiter.Stop()

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	enrollmentWorker := worker.NewEnrollmentWorker(rdb, courseRepo, courseCache, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		enrollmentWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, router.Deps{
		Tokens:        authService,
		Users:         userRepo,
		GeminiLimiter: geminiLimiter,
		Log:           logger.Component(log, "http"),
	}, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop the worker; it flushes its pending batch before returning.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
