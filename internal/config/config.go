package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the article service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"article-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"ARTICLE_API_PORT" envDefault:"5000"`
	LogLevel        string        `env:"ARTICLE_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database
	DatabaseDSN    string        `env:"DB_POSTGRESQL_DSN,notEmpty"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"ARTICLE_STORAGE_BACKEND" envDefault:"cloudinary"` // Options: "cloudinary" or "s3"

	// Cloudinary Storage Configuration
	CloudinaryCloudName string        `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string        `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string        `env:"CLOUDINARY_API_SECRET"`
	CloudinaryTimeout   time.Duration `env:"CLOUDINARY_TIMEOUT" envDefault:"60s"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"ARTICLE_S3_ENDPOINT"`
	S3Region       string `env:"ARTICLE_S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"ARTICLE_S3_BUCKET"`
	S3AccessKeyID  string `env:"ARTICLE_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"ARTICLE_S3_SECRET_ACCESS_KEY"`
	S3PublicURL    string `env:"ARTICLE_S3_PUBLIC_URL"`
	S3UsePathStyle bool   `env:"ARTICLE_S3_USE_PATH_STYLE" envDefault:"true"`

	// Upload Configuration
	MaxAudioBytes     int64  `env:"ARTICLE_MAX_AUDIO_BYTES" envDefault:"52428800"`
	MaxThumbnailBytes int64  `env:"ARTICLE_MAX_THUMBNAIL_BYTES" envDefault:"10485760"`
	TempDir           string `env:"ARTICLE_TEMP_DIR" envDefault:""`

	// Duration Probing
	FFProbeBinary       string        `env:"FFPROBE_BINARY" envDefault:"ffprobe"`
	ProbeTimeout        time.Duration `env:"FFPROBE_TIMEOUT" envDefault:"30s"`
	LiveProbeRetryDelay time.Duration `env:"LIVE_PROBE_RETRY_DELAY" envDefault:"1s"`

	// Temp File Janitor
	JanitorSchedule string        `env:"TEMP_JANITOR_SCHEDULE" envDefault:"@hourly"`
	JanitorMaxAge   time.Duration `env:"TEMP_JANITOR_MAX_AGE" envDefault:"1h"`

	// Authentication (opaque bearer token for admin routes)
	AdminToken string `env:"ADMIN_API_TOKEN"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.CloudinaryCloudName = strings.TrimSpace(cfg.CloudinaryCloudName)
	cfg.CloudinaryAPIKey = strings.TrimSpace(cfg.CloudinaryAPIKey)
	cfg.CloudinaryAPISecret = strings.TrimSpace(cfg.CloudinaryAPISecret)
	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = 50 * 1024 * 1024
	}
	if cfg.MaxThumbnailBytes <= 0 {
		cfg.MaxThumbnailBytes = 10 * 1024 * 1024
	}
	if cfg.IsCloudinaryStorage() && cfg.CloudinaryCloudName == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME is required when ARTICLE_STORAGE_BACKEND is cloudinary")
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsCloudinaryStorage returns true if the Cloudinary storage backend is configured.
func (c *Config) IsCloudinaryStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "cloudinary"
}

// IsS3Storage returns true if the S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "s3"
}
