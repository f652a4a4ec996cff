package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const insecureJWTSecret = "change-me-realty-service-secret"

// Config holds all configuration for the service.
type Config struct {
	ServiceName   string `mapstructure:"SERVICE_NAME"`
	HTTPPort      string `mapstructure:"HTTP_PORT"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddress    string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	ListingCacheTTL time.Duration `mapstructure:"LISTING_CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	// MinioPublicURL is the externally reachable base for stored objects,
	// e.g. http://localhost:9000. Defaults to the endpoint.
	MinioPublicURL string `mapstructure:"MINIO_PUBLIC_URL"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	ProfileDefaultImgURL string `mapstructure:"PROFILE_DEFAULT_IMG_URL"`
	GalleryMinImages     int    `mapstructure:"GALLERY_MIN_IMAGES"`
	GalleryMaxImages     int    `mapstructure:"GALLERY_MAX_IMAGES"`

	UploadRateLimit int           `mapstructure:"UPLOAD_RATE_LIMIT"`
	UpdateRateLimit int           `mapstructure:"UPDATE_RATE_LIMIT"`
	RateLimitWindow time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPEmail    string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	LogOutputFile          string `mapstructure:"LOG_OUTPUT_FILE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "realty-service")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "realty")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LISTING_CACHE_TTL", time.Hour)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "realty-media")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_PUBLIC_URL", "")
	v.SetDefault("JWT_SECRET", insecureJWTSecret)
	v.SetDefault("PROFILE_DEFAULT_IMG_URL", "http://localhost:8080/static/default-profile.png")
	v.SetDefault("GALLERY_MIN_IMAGES", 1)
	v.SetDefault("GALLERY_MAX_IMAGES", 20)
	v.SetDefault("UPLOAD_RATE_LIMIT", 5)
	v.SetDefault("UPDATE_RATE_LIMIT", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", 15*time.Minute)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_EMAIL", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("PROMETHEUS_METRICS_PORT", "9095")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT_FILE", "stdout")
}

// Load reads configuration from the environment. The caller is expected to
// have loaded any .env file beforehand.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.MongoDatabase == "" {
		errs = append(errs, errors.New("MONGO_DATABASE is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.MinioBucket == "" {
		errs = append(errs, errors.New("MINIO_BUCKET is required"))
	}
	if c.GalleryMinImages < 1 {
		errs = append(errs, errors.New("GALLERY_MIN_IMAGES must be at least 1"))
	}
	if c.GalleryMaxImages < c.GalleryMinImages {
		errs = append(errs, errors.New("GALLERY_MAX_IMAGES must not be below GALLERY_MIN_IMAGES"))
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	if c.MinioPublicURL == "" {
		scheme := "http"
		if c.MinioUseSSL {
			scheme = "https"
		}
		c.MinioPublicURL = scheme + "://" + c.MinioEndpoint
	}
	c.MinioPublicURL = strings.TrimRight(c.MinioPublicURL, "/")
	return errors.Join(errs...)
}

// InsecureJWTSecret reports whether the token secret was left at its default.
func (c *Config) InsecureJWTSecret() bool {
	return c.JWTSecret == insecureJWTSecret
}
