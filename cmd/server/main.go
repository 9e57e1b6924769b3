package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/poctrail/assistant/internal/api"
	"github.com/poctrail/assistant/internal/config"
	"github.com/poctrail/assistant/internal/metrics"
	"github.com/poctrail/assistant/internal/repository/postgres"
	"github.com/poctrail/assistant/internal/repository/redis"
	"github.com/poctrail/assistant/internal/session"
)

func main() {
	// A missing .env is fine in containers; variables come from the runtime.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogger(cfg)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("env", cfg.App.Env).
		Msg("starting assistant server")

	db, err := postgres.NewDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	// The registry owns every live conversation; the sweeper reclaims idle
	// ones until shutdown.
	registry := session.NewRegistry(cfg.Assistant, metrics.Global())
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go registry.Run(sweepCtx)

	router := api.NewRouter(cfg, db, redisClient, registry)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Msgf("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	stopSweeper()

	log.Info().Msg("server stopped")
}

// setupLogger configures zerolog output per the logging config
func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if cfg.Logging.Format == "console" || cfg.App.Env == "development" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		writers = append(writers, os.Stderr)
	}

	if cfg.Logging.File.Enabled {
		writer, err := rotatelogs.New(
			cfg.Logging.File.Path+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.Logging.File.Path),
			rotatelogs.WithMaxAge(cfg.Logging.File.MaxAge),
			rotatelogs.WithRotationTime(cfg.Logging.File.RotationTime),
		)
		if err != nil {
			log.Error().Err(err).Msg("failed to open log file, logging to stderr only")
		} else {
			writers = append(writers, writer)
		}
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
}
