package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends understood by the uploader.
const (
	BackendDisk     = "disk"
	BackendMemory   = "memory"
	BackendMinIO    = "minio"
	BackendPostgres = "postgres"
)

// Config aggregates runtime configuration for the uploader.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	MinIO     MinIOConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxMultipartMemory int64
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects where uploaded files live.
type StorageConfig struct {
	Backend string
	Dir     string
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint         string
	AccessKeyID      string
	SecretAccessKey  string
	Bucket           string
	Prefix           string
	UseSSL           bool
	Region           string
	PresignDownloads bool
	PresignTTL       time.Duration
}

// RateLimitConfig throttles uploads. Zero disables the limit.
type RateLimitConfig struct {
	UploadsPerSecond int
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:               getString("UPLOADER_HOST", "0.0.0.0"),
			Port:               getInt("UPLOADER_PORT", 4000),
			ReadTimeout:        getDuration("UPLOADER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getDuration("UPLOADER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:        getDuration("UPLOADER_IDLE_TIMEOUT", 60*time.Second),
			MaxMultipartMemory: int64(getInt("UPLOADER_MAX_MULTIPART_MEMORY", 32<<20)),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(strings.TrimSpace(getString("UPLOADER_STORAGE_BACKEND", BackendDisk))),
			Dir:     getString("UPLOADER_STORAGE_DIR", "filestorage"),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "uploader"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "uploader"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		MinIO: MinIOConfig{
			Endpoint:         getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:      getString("MINIO_ROOT_USER", "uploader"),
			SecretAccessKey:  getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:           getString("MINIO_BUCKET", "filestorage"),
			Prefix:           strings.Trim(getString("MINIO_PREFIX", ""), "/"),
			UseSSL:           getBool("MINIO_USE_SSL", false),
			Region:           getString("MINIO_REGION", ""),
			PresignDownloads: getBool("MINIO_PRESIGN_DOWNLOADS", false),
			PresignTTL:       getDuration("MINIO_PRESIGN_TTL", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			UploadsPerSecond: getInt("UPLOADER_UPLOAD_RATE_LIMIT", 0),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("UPLOADER_METRICS_PATH", "/metrics"),
		},
	}

	switch cfg.Storage.Backend {
	case BackendDisk, BackendMemory, BackendMinIO, BackendPostgres:
	default:
		return Config{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == BackendDisk && strings.TrimSpace(cfg.Storage.Dir) == "" {
		return Config{}, fmt.Errorf("storage directory must not be empty")
	}
	if cfg.Server.MaxMultipartMemory <= 0 {
		cfg.Server.MaxMultipartMemory = 32 << 20
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
