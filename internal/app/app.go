// Package app wires the meeting pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meetmate/core/config"
	"github.com/meetmate/core/internal/auth"
	"github.com/meetmate/core/internal/dispatch"
	"github.com/meetmate/core/internal/meetings"
	"github.com/meetmate/core/internal/notify"
	"github.com/meetmate/core/internal/pipeline"
	"github.com/meetmate/core/internal/playback"
	"github.com/meetmate/core/internal/profiles"
	"github.com/meetmate/core/internal/upload"
	"github.com/meetmate/core/pkg/database"
	"github.com/meetmate/core/pkg/redis"
	"github.com/meetmate/core/pkg/storage"
)

// Options controls what New sets up.
type Options struct {
	// Sessions supplies the caller's session to every component.
	Sessions auth.Provider
	// Migrate applies pending database migrations.
	Migrate bool
}

// App holds the wired components. Publisher and Subscriber are nil without Redis.
type App struct {
	Verifier   *auth.Verifier
	Meetings   *meetings.Manager
	Profiles   *profiles.Manager
	Pipeline   *pipeline.Pipeline
	Publisher  *notify.Publisher
	Subscriber *notify.Subscriber

	pool   *pgxpool.Pool
	redis  *redis.Client
	logger *zap.Logger
}

// NewVerifier returns the access token verifier for cfg.
func NewVerifier(cfg *config.Config) *auth.Verifier {
	return auth.NewVerifier(cfg.Auth.JWTSecret, time.Hour)
}

// New connects to Postgres, Redis and object storage and builds the pipeline.
func New(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Verifier: NewVerifier(cfg), logger: logger}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = auth.NewStaticProvider(a.Verifier, cfg.Auth.AccessToken, cfg.Auth.RefreshToken)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.pool = pool
	if opts.Migrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	var fingerprints upload.FingerprintStore
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rdb
		fingerprints = upload.NewRedisFingerprintStore(rdb.Client, upload.DefaultFingerprintTTL)
		a.Publisher = notify.NewPublisher(rdb.Client, logger)
		a.Subscriber = notify.NewSubscriber(rdb.Client, logger)
	} else {
		logger.Warn("redis not configured: uploads resume only within this process and notifications are disabled")
		fingerprints = upload.NewMemoryFingerprintStore()
	}

	s3, err := storage.NewS3(ctx, storage.S3Config{
		Endpoint:        cfg.Storage.S3Endpoint(),
		PublicBase:      cfg.Storage.APIBase(),
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PartSize:        cfg.Storage.ChunkSize(),
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	a.Meetings = meetings.NewManager(meetings.NewRepository(pool), sessions, logger)
	a.Profiles = profiles.NewManager(profiles.NewRepository(pool), sessions, logger)
	engine := upload.NewEngine(s3, fingerprints, sessions, upload.Config{ChunkSize: cfg.Storage.ChunkSize()}, logger)
	dispatcher := dispatch.NewDispatcher(cfg.Backend.URL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second, sessions, a.Meetings, logger)
	resolver := playback.NewResolver(s3, sessions, time.Duration(cfg.Storage.SignedURLExpirySec)*time.Second, logger)
	a.Pipeline = pipeline.New(engine, a.Meetings, dispatcher, resolver, cfg.Storage.Bucket, logger)
	return a, nil
}

// Close releases database and Redis connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// NewLogger builds the production JSON logger at level.
func NewLogger(level zapcore.Level) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(level)
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
