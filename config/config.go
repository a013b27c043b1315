package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultBackendURL is used when BACKEND_URL is not configured.
const DefaultBackendURL = "http://localhost:8000"

// Config holds application configuration loaded from file and environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Backend  BackendConfig
	Settings SettingsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	UploadDir          string // spool directory for received recordings; empty uses the system temp dir
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/meetmate?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds token verification settings and the CLI session tokens.
type AuthConfig struct {
	JWTSecret    string
	AccessToken  string
	RefreshToken string
}

// StorageConfig holds the object storage endpoint and bucket settings.
type StorageConfig struct {
	URL                string // storage project URL; API base is URL + /storage/v1
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	Bucket             string
	ChunkSizeMB        int
	SignedURLExpirySec int
}

// BackendConfig holds the processing backend settings.
type BackendConfig struct {
	URL            string
	TimeoutSeconds int
	WebhookSecret  string // shared secret of the completion callback; empty disables the route
}

// SettingsConfig points at the persisted client settings file.
type SettingsConfig struct {
	Path string
}

// fileConfig mirrors the optional TOML config file.
type fileConfig struct {
	DatabaseURL     string `toml:"database_url"`
	RedisAddr       string `toml:"redis_addr"`
	JWTSecret       string `toml:"jwt_secret"`
	StorageURL      string `toml:"storage_url"`
	StorageRegion   string `toml:"storage_region"`
	StorageKeyID    string `toml:"storage_access_key_id"`
	StorageSecret   string `toml:"storage_secret_access_key"`
	Bucket          string `toml:"bucket"`
	BackendURL      string `toml:"backend_url"`
	WebhookSecret   string `toml:"backend_webhook_secret"`
	SettingsPath    string `toml:"settings_path"`
	CORSAllowOrigin string `toml:"cors_allowed_origins"`
}

// APIBase returns the storage API base ({URL}/storage/v1) used for public object URLs.
func (c StorageConfig) APIBase() string {
	return strings.TrimRight(c.URL, "/") + "/storage/v1"
}

// S3Endpoint returns the S3-compatible endpoint of the storage API.
func (c StorageConfig) S3Endpoint() string {
	return c.APIBase() + "/s3"
}

// ChunkSize returns the upload chunk size in bytes.
func (c StorageConfig) ChunkSize() int64 {
	if c.ChunkSizeMB <= 0 {
		return 6 * 1024 * 1024
	}
	return int64(c.ChunkSizeMB) * 1024 * 1024
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env and TOML files.
// Precedence: environment, then config file, then defaults.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	var fc fileConfig
	if path := configFilePath(); path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 0),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", or(fc.CORSAllowOrigin, "*")),
			UploadDir:          getEnv("UPLOAD_SPOOL_DIR", ""),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", fc.DatabaseURL),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "meetmate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", fc.RedisAddr),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", fc.JWTSecret),
			AccessToken:  getEnv("MEETMATE_ACCESS_TOKEN", ""),
			RefreshToken: getEnv("MEETMATE_REFRESH_TOKEN", ""),
		},
		Storage: StorageConfig{
			URL:                getEnv("STORAGE_URL", or(fc.StorageURL, "http://localhost:54321")),
			Region:             getEnv("STORAGE_REGION", or(fc.StorageRegion, "us-east-1")),
			AccessKeyID:        getEnv("STORAGE_ACCESS_KEY_ID", fc.StorageKeyID),
			SecretAccessKey:    getEnv("STORAGE_SECRET_ACCESS_KEY", fc.StorageSecret),
			Bucket:             getEnv("STORAGE_BUCKET", or(fc.Bucket, "meetings_bucket")),
			ChunkSizeMB:        getEnvInt("UPLOAD_CHUNK_SIZE_MB", 6),
			SignedURLExpirySec: getEnvInt("SIGNED_URL_EXPIRY_SEC", 3600),
		},
		Backend: BackendConfig{
			URL:            getEnv("BACKEND_URL", or(fc.BackendURL, DefaultBackendURL)),
			TimeoutSeconds: getEnvInt("BACKEND_TIMEOUT_SEC", 30),
			WebhookSecret:  getEnv("BACKEND_WEBHOOK_SECRET", fc.WebhookSecret),
		},
		Settings: SettingsConfig{
			Path: getEnv("MEETMATE_SETTINGS", or(fc.SettingsPath, defaultSettingsPath())),
		},
	}
	return cfg, nil
}

func configFilePath() string {
	if p := os.Getenv("MEETMATE_CONFIG"); p != "" {
		return p
	}
	var dir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = filepath.Join(xdg, "meetmate")
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "meetmate")
	} else {
		return ""
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultSettingsPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".meetmate", "settings.json")
	}
	return filepath.Join(".", ".meetmate", "settings.json")
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
