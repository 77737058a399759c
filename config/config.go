// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rgonek/blogpen/media"
	"github.com/rgonek/blogpen/post"
	"github.com/rgonek/blogpen/storage"
	"github.com/rgonek/blogpen/storage/objectstore"
	"github.com/rgonek/blogpen/transform"
	"github.com/sirupsen/logrus"
)

// Media backends.
const (
	BackendAPI   = "api"
	BackendMinio = "minio"
)

type Config struct {
	// Blog API
	APIURL      string
	Token       string
	HTTPTimeout time.Duration
	HTTPRetries int

	// Uploads
	MediaBackend         string
	MaxImageBytes        int64
	MaxVideoBytes        int64
	TransformConcurrency int

	// Object store, used when MediaBackend is minio
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	ExcerptLength int
	ReadOnly      bool
	LogLevel      string
}

// LoadFile reads variables from an env file into the process environment.
// Variables already set win. A missing file is not an error.
func LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	cfg := Config{
		APIURL:      envOr("BLOGPEN_API_URL", storage.DefaultBaseURL),
		Token:       os.Getenv("BLOGPEN_TOKEN"),
		HTTPTimeout: envDuration("BLOGPEN_HTTP_TIMEOUT", 30*time.Second),
		HTTPRetries: envInt("BLOGPEN_HTTP_RETRIES", 3),

		MediaBackend:         envOr("BLOGPEN_MEDIA_BACKEND", BackendAPI),
		MaxImageBytes:        envInt64("BLOGPEN_MAX_IMAGE_BYTES", media.DefaultMaxImageBytes),
		MaxVideoBytes:        envInt64("BLOGPEN_MAX_VIDEO_BYTES", media.DefaultMaxVideoBytes),
		TransformConcurrency: envInt("BLOGPEN_TRANSFORM_CONCURRENCY", 1),

		MinioEndpoint:  os.Getenv("BLOGPEN_MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("BLOGPEN_MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("BLOGPEN_MINIO_SECRET_KEY"),
		MinioBucket:    envOr("BLOGPEN_MINIO_BUCKET", "blog"),
		MinioUseSSL:    envBool("BLOGPEN_MINIO_USE_SSL", false),
		MinioPublicURL: os.Getenv("BLOGPEN_MINIO_PUBLIC_URL"),

		ExcerptLength: envInt("BLOGPEN_EXCERPT_LENGTH", 150),
		ReadOnly:      envBool("BLOGPEN_READ_ONLY", false),
		LogLevel:      envOr("BLOGPEN_LOG_LEVEL", "info"),
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = media.DefaultMaxImageBytes
	}
	if cfg.MaxVideoBytes <= 0 {
		cfg.MaxVideoBytes = media.DefaultMaxVideoBytes
	}
	if cfg.TransformConcurrency <= 0 {
		cfg.TransformConcurrency = 1
	}
	if cfg.ExcerptLength <= 0 {
		cfg.ExcerptLength = 150
	}

	return cfg
}

func (c Config) Validate() error {
	if err := c.Storage().Validate(); err != nil {
		return fmt.Errorf("BLOGPEN_API_URL: %w", err)
	}
	if c.HTTPRetries < 0 {
		return fmt.Errorf("BLOGPEN_HTTP_RETRIES must not be negative, got %d", c.HTTPRetries)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("BLOGPEN_LOG_LEVEL: %w", err)
	}
	switch c.MediaBackend {
	case BackendAPI:
	case BackendMinio:
		if c.MinioEndpoint == "" {
			return fmt.Errorf("BLOGPEN_MINIO_ENDPOINT is required for the minio backend")
		}
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			return fmt.Errorf("BLOGPEN_MINIO_ACCESS_KEY and BLOGPEN_MINIO_SECRET_KEY are required for the minio backend")
		}
	default:
		return fmt.Errorf("invalid BLOGPEN_MEDIA_BACKEND %q (allowed: api, minio)", c.MediaBackend)
	}
	return nil
}

// Storage returns the blog API client config.
func (c Config) Storage() storage.Config {
	retries := c.HTTPRetries
	if retries == 0 {
		retries = -1
	}
	return storage.Config{
		BaseURL:  c.APIURL,
		Timeout:  c.HTTPTimeout,
		RetryMax: retries,
	}
}

// Media returns the upload coordinator config.
func (c Config) Media() media.Config {
	return media.Config{
		MaxImageBytes: c.MaxImageBytes,
		MaxVideoBytes: c.MaxVideoBytes,
	}
}

// Transform returns the embedded image transform config.
func (c Config) Transform() transform.Config {
	return transform.Config{Concurrency: c.TransformConcurrency}
}

// Post returns the form flow config.
func (c Config) Post() post.Config {
	return post.Config{ExcerptLength: c.ExcerptLength, Media: c.Media()}
}

// ObjectStore returns the bucket uploader config.
func (c Config) ObjectStore() objectstore.Config {
	return objectstore.Config{
		Endpoint:  c.MinioEndpoint,
		AccessKey: c.MinioAccessKey,
		SecretKey: c.MinioSecretKey,
		Bucket:    c.MinioBucket,
		UseSSL:    c.MinioUseSSL,
		PublicURL: c.MinioPublicURL,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
