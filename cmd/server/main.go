package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meetmate/core/config"
	"github.com/meetmate/core/internal/api"
	"github.com/meetmate/core/internal/app"
	"github.com/meetmate/core/internal/auth"
)

func main() {
	logger := app.NewLogger(zapcore.InfoLevel)
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx := context.Background()
	core, err := app.New(ctx, cfg, app.Options{Sessions: auth.ContextProvider{}, Migrate: true}, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	defer core.Close()

	var webhooks *api.WebhookHandler
	if cfg.Backend.WebhookSecret != "" && core.Publisher != nil {
		webhooks = api.NewWebhookHandler(core.Publisher, cfg.Backend.WebhookSecret, logger)
	} else {
		logger.Info("completion webhook disabled (needs BACKEND_WEBHOOK_SECRET and Redis)")
	}

	router := api.NewRouter(api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Verifier:           core.Verifier,
		Meetings:           api.NewHandler(core.Pipeline, core.Meetings, cfg.Server.UploadDir, logger),
		Webhooks:           webhooks,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
