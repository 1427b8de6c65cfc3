package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"vending-api/internal/config"
	"vending-api/internal/db"
	"vending-api/internal/logger"
	"vending-api/internal/router"
	"vending-api/internal/store"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.InitLogger(cfg.LogLevel)
	log.Info().Str("driver", cfg.DBDriver).Msg("Starting vending machine API")

	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("JWT_SECRET not set, using default key")
	}

	repo, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer repo.Close()

	svc := router.NewServices(repo, cfg, log)

	if cfg.AdminUsername != "" {
		if _, err := svc.Users.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap admin account")
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(svc, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

func openStore(cfg config.Config, log zerolog.Logger) (store.Repository, error) {
	if cfg.DBDriver == "memory" {
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	database, err := db.InitDB(cfg.DBDriver, cfg.DBUrl, log)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(database, log); err != nil {
		database.Close()
		return nil, err
	}
	return store.NewSQLStore(database), nil
}
