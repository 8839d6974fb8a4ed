package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/horizon-rp/department-backend/internal/config"
	"github.com/horizon-rp/department-backend/internal/database"
	"github.com/horizon-rp/department-backend/internal/handler"
	"github.com/horizon-rp/department-backend/internal/logger"
	"github.com/horizon-rp/department-backend/internal/notifier"
	"github.com/horizon-rp/department-backend/internal/repository"
	"github.com/horizon-rp/department-backend/internal/router"
	"github.com/horizon-rp/department-backend/internal/service"
	"github.com/horizon-rp/department-backend/internal/validator"
	"github.com/horizon-rp/department-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log.Logger = logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection failed")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer rdb.Close()

	// Repositories
	candidateRepo := repository.NewCandidateRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	tokenRepo := repository.NewAccessTokenRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(rdb, cfg.SnapshotTTL)

	// Services
	authService := service.NewAuthService(cfg, rdb)
	eventNotifier := notifier.NewQueueNotifier(rdb, log.Logger)
	portalService := service.NewPortalService(
		catalogRepo, tokenRepo, snapshotRepo, resultRepo, eventNotifier, log.Logger)
	archiveService := service.NewArchiveService(resultRepo, log.Logger)

	// Handlers
	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authService, candidateRepo, log.Logger),
		Portal:  handler.NewPortalHandler(portalService, archiveService, log.Logger),
		Archive: handler.NewArchiveHandler(archiveService, log.Logger),
		WS:      handler.NewWSHandler(cfg, portalService, log.Logger),
	}

	eventWorker := worker.NewEventWorker(pool, rdb, log.Logger)
	go eventWorker.Start(ctx)

	r := router.New(cfg, authService, handlers)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received")

	// Stop countdowns first. Snapshots keep in-progress sessions resumable
	// after the restart.
	portalService.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
