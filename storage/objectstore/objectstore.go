// Package objectstore uploads editor media straight to an S3-compatible
// bucket instead of going through the blog API.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rgonek/blogpen/media"
	"github.com/sirupsen/logrus"
)

// Config holds bucket connection options.
type Config struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"useSsl,omitempty"`
	// Region skips the bucket location lookup when set.
	Region string `json:"region,omitempty"`
	// PublicURL is the base under which objects are served. Zero means the
	// endpoint URL followed by the bucket name.
	PublicURL string `json:"publicUrl,omitempty"`
	// Prefix is prepended to object keys. Zero means "uploads".
	Prefix string `json:"prefix,omitempty"`
}

func (c Config) applyDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = "uploads"
	}
	if c.PublicURL == "" && c.Endpoint != "" {
		scheme := "http"
		if c.UseSSL {
			scheme = "https"
		}
		c.PublicURL = scheme + "://" + c.Endpoint + "/" + c.Bucket
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	return c
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if u, err := url.Parse(c.PublicURL); err != nil || u.Host == "" {
		return fmt.Errorf("invalid publicUrl %q", c.PublicURL)
	}
	return nil
}

// Uploader stores media objects in a bucket. It implements media.Uploader.
type Uploader struct {
	config Config
	client *minio.Client
	log    logrus.FieldLogger
}

var _ media.Uploader = (*Uploader)(nil)

// New connects to the bucket endpoint.
func New(cfg Config, log logrus.FieldLogger) (*Uploader, error) {
	cfg = cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Uploader{config: cfg, client: client, log: log}, nil
}

// CheckBucket verifies that the configured bucket exists.
func (u *Uploader) CheckBucket(ctx context.Context) error {
	ok, err := u.client.BucketExists(ctx, u.config.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.config.Bucket, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", u.config.Bucket)
	}
	return nil
}

// UploadMedia stores f under a fresh key and returns its public URL.
func (u *Uploader) UploadMedia(ctx context.Context, f media.File) (media.Asset, error) {
	key := ObjectKey(u.config.Prefix, f.Name, uuid.New())
	_, err := u.client.PutObject(ctx, u.config.Bucket, key, bytes.NewReader(f.Data), f.Size(), minio.PutObjectOptions{
		ContentType: f.MimeType,
	})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		u.log.WithFields(logrus.Fields{
			"key":  key,
			"code": resp.Code,
		}).WithError(err).Error("put object")
		return media.Asset{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return media.Asset{URL: u.config.PublicURL + "/" + key, MimeType: f.MimeType}, nil
}

// ObjectKey builds prefix/<id><ext> keeping the extension of name.
func ObjectKey(prefix, name string, id uuid.UUID) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(name, "\\", "/"))))
	if strings.ContainsAny(ext, "?#% ") {
		ext = ""
	}
	return path.Join(prefix, id.String()+ext)
}
