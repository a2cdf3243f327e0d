package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"passui/internal/api"
	"passui/internal/auth/ldap"
	"passui/internal/config"
	"passui/internal/logging"
	"passui/internal/metrics"
	"passui/internal/passwd"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig(config.FileFromEnvironment())
	if err != nil {
		log.Fatal().Err(errors.Wrap(err, "Failed to get config")).Msg("startup failed")
	}

	logger, writer, closer, err := logging.New(cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer closer.Close()

	for _, w := range cfg.Warnings {
		logger.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, writer); err != nil {
		logger.Error().Err(err).Msg("passui stopped")
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, writer io.Writer) error {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = writer
	gin.DefaultErrorWriter = writer

	shutdown, err := setupTracing(ctx, cfg.Server)
	if err != nil {
		return errors.Wrap(err, "Failed to set up tracing")
	}
	defer func() { _ = shutdown(context.Background()) }()

	directory, err := ldap.NewDirectory(cfg.Ldap, logger)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	opts := []passwd.Option{}
	if cfg.Server.Metrics {
		m = metrics.New()
		opts = append(opts, passwd.WithObserver(m))
	}
	svc := passwd.NewService(cfg.Policy, directory, logger, opts...)

	router, err := api.NewRouter(cfg, svc, logger, m)
	if err != nil {
		return err
	}

	logger.Info().
		Str("host", cfg.Ldap.Host).
		Int("port", cfg.Ldap.Port).
		Str("type", string(cfg.Ldap.Type)).
		Msg("Starting passui")
	return api.Run(ctx, cfg, router, logger)
}
