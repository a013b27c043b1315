package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap/zapcore"

	"github.com/meetmate/core/config"
	"github.com/meetmate/core/internal/app"
	"github.com/meetmate/core/internal/cli"
	"github.com/meetmate/core/internal/output"
	"github.com/meetmate/core/internal/settings"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := zapcore.WarnLevel
	if os.Getenv("MEETMATE_DEBUG") != "" {
		level = zapcore.DebugLevel
	}
	logger := app.NewLogger(level)
	defer logger.Sync()

	deps := &cli.Dependencies{
		Config:   cfg,
		Settings: settings.NewJSONStore(cfg.Settings.Path),
		Open: func(ctx context.Context) (*app.App, error) {
			return app.New(ctx, cfg, app.Options{}, logger)
		},
		Out:    os.Stdout,
		Logger: logger,
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cli.NewRootCmd(deps).ExecuteContext(ctx)
}
