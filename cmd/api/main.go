package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"grana/internal/shared/config"
	"grana/internal/shared/logger"
	"grana/internal/shared/telemetry"
)

func main() {
	logger.SetGlobal(logger.New())

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize telemetry if enabled
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(context.Background(), telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("telemetry shutdown error")
			}
		}()
	}

	deps, err := NewDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	handler := SetupRoutes(deps, cfg)

	srv, redirectSrv := StartServers(NewServerConfigFromConfig(handler, cfg))

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	GracefulShutdown(srv, redirectSrv, 30*time.Second)
	return nil
}
