package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/devserver/internal/api"
	"github.com/isdelr/devserver/internal/config"
	"github.com/isdelr/devserver/internal/database"
	"github.com/isdelr/devserver/internal/logger"
	"github.com/isdelr/devserver/internal/monitoring"
	"github.com/isdelr/devserver/internal/services"
	"github.com/isdelr/devserver/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db, hub)
	backupService := services.NewBackupService(db, eventService, cfg.BackupDir, cfg.UniqueBackupNames)

	// Set up and run the storage monitor
	monitor := monitoring.NewStorageMonitor(cfg.BackupDir, cfg.DiskUsageThreshold, eventService)
	scheduler := monitoring.NewScheduler(cfg.DiskCheckSchedule, monitor)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start storage monitor")
	}

	srv := api.NewServer(cfg, hub, backupService, eventService)

	// Graceful shutdown
	go func() {
		log.Info().Msgf("Serving at port %d", cfg.ServerPort)
		log.Info().Msgf("Open your browser to http://localhost:%d/index.html", cfg.ServerPort)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
