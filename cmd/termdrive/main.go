// Command termdrive plays the driving game in a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/race/highway/config"
	"github.com/race/highway/internal/logging"
	"github.com/race/highway/internal/terminal"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file (json, yaml, toml)")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "termdrive: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The screen owns stdout, so logs go to a file.
	logger := zerolog.Nop()
	if cfg.Terminal.LogFile != "" {
		f, err := os.OpenFile(cfg.Terminal.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger = logging.NewJSON(f, cfg.LogLevel)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	var beeper terminal.Beeper = terminal.NopBeeper{}
	if cfg.Terminal.Sound {
		if sb, err := terminal.NewSpeakerBeeper(); err != nil {
			logger.Warn().Err(err).Msg("audio unavailable, playing without sound")
		} else {
			beeper = sb
		}
	}
	defer beeper.Close()

	app, err := terminal.NewApp(screen, cfg, beeper, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Int("tickRate", cfg.Tuning.TickRate).Msg("termdrive started")
	return app.Run(ctx)
}
