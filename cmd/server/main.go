package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aramartialarts/portal-backend/internal/config"
	"github.com/aramartialarts/portal-backend/internal/database"
	"github.com/aramartialarts/portal-backend/internal/handler"
	"github.com/aramartialarts/portal-backend/internal/logger"
	"github.com/aramartialarts/portal-backend/internal/middleware"
	"github.com/aramartialarts/portal-backend/internal/repository"
	"github.com/aramartialarts/portal-backend/internal/router"
	"github.com/aramartialarts/portal-backend/internal/service"
	"github.com/aramartialarts/portal-backend/internal/validator"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Ara portal backend")

	if cfg.AdminPortalKey == "" {
		log.Warn().Msg("ADMIN_PORTAL_KEY not set, admin reporting is open")
	}

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	stores := repository.NewPostgresStores(pool)

	tokenService := service.NewTokenService(cfg)
	portalService := service.NewPortalService(stores, tokenService, log)
	reportService := service.NewReportService(stores, log)
	chatService := service.NewChatService(cfg, log)

	handlers := &router.Handlers{
		Portal: handler.NewPortalHandler(portalService),
		Admin:  handler.NewAdminHandler(reportService),
		Chat:   handler.NewChatHandler(chatService),
	}

	limiter := middleware.NewRateLimiter(rdb, log, cfg.LoginRateLimit, time.Minute)

	r := router.SetupRouter(cfg, tokenService, limiter, handlers)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
