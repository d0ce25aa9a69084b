// Command gameserver serves the driving game to browser clients over WebSocket.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/race/highway/config"
	"github.com/race/highway/internal/logging"
	"github.com/race/highway/internal/server"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file (json, yaml, toml)")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, os.Stdout); err != nil {
		logger := logging.New(os.Stderr, "error")
		logger.Fatal().Err(err).Msg("gameserver")
	}
}

func run(ctx context.Context, configPath string, logOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.New(logOut, cfg.LogLevel)
	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Bool("cors", cfg.Server.EnableCORS).
		Dur("idleTimeout", cfg.Server.IdleTimeout).
		Msg("Highway game server")

	if err := server.New(cfg, logger).Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
