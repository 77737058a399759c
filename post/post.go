// Package post implements the authoring form flow: loading a stored post for
// editing, validating it and saving it after embedded images have been
// uploaded.
package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator"
	"github.com/rgonek/blogpen/markup"
	"github.com/rgonek/blogpen/media"
	"github.com/rgonek/blogpen/storage"
	"github.com/rgonek/blogpen/transform"
	"github.com/sirupsen/logrus"
)

// ErrSaveFailed wraps every error that kept a valid post from being stored.
// The caller still holds the draft and may retry.
var ErrSaveFailed = errors.New("save failed")

// Store persists posts. *storage.Client implements it.
type Store interface {
	CreateContent(ctx context.Context, p storage.Payload) (storage.Content, error)
	UpdateContent(ctx context.Context, id string, p storage.Payload) (storage.Content, error)
	GetContentByID(ctx context.Context, id string) (storage.Content, error)
}

// Draft is the state of the authoring form.
type Draft struct {
	// ID is empty for a post that has not been stored yet.
	ID              string `json:"id,omitempty"`
	Title           string `json:"title" validate:"notblank"`
	Content         string `json:"content" validate:"content"`
	Status          string `json:"status" validate:"omitempty,oneof=draft published archived"`
	VideoURL        string `json:"video_url,omitempty" validate:"omitempty,url"`
	MetaTitle       string `json:"meta_title,omitempty" validate:"max=200"`
	MetaDescription string `json:"meta_description,omitempty" validate:"max=500"`
	// FeaturedImageURL is the image already stored with the post.
	FeaturedImageURL string `json:"featured_image,omitempty"`
	// FeaturedImage is a newly chosen image. It replaces FeaturedImageURL
	// on save.
	FeaturedImage *media.File `json:"-"`
}

// Config holds service options.
type Config struct {
	// ExcerptLength is the rune length of generated meta descriptions.
	// Zero means 150.
	ExcerptLength int `json:"excerptLength,omitempty"`
	// Media bounds the featured image.
	Media media.Config `json:"media"`
	// Markup configures the parser used by the content check.
	Markup markup.Config `json:"markup"`
}

func (c Config) applyDefaults() Config {
	if c.ExcerptLength == 0 {
		c.ExcerptLength = 150
	}
	return c
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	if c.ExcerptLength < 0 {
		return fmt.Errorf("excerptLength must not be negative, got %d", c.ExcerptLength)
	}
	return c.Media.Validate()
}

// Saved is the outcome of a successful save.
type Saved struct {
	Content storage.Content
	// Images reports the embedded images processed before storing.
	Images transform.Result
}

// Service runs the form flow against a store.
type Service struct {
	config      Config
	store       Store
	transformer *transform.Transformer
	validator   *validator.Validate
	media       media.Config
	log         logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a Service. The transformer rewrites embedded images
// before every save.
func NewService(cfg Config, store Store, tr *transform.Transformer, opts ...Option) (*Service, error) {
	cfg = cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("post: nil store")
	}
	if tr == nil {
		return nil, fmt.Errorf("post: nil transformer")
	}
	codec, err := markup.New(cfg.Markup)
	if err != nil {
		return nil, err
	}

	s := &Service{
		config:      cfg,
		store:       store,
		transformer: tr,
		validator:   newValidator(codec),
		media:       cfg.Media,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load fetches a stored post into a draft for editing.
func (s *Service) Load(ctx context.Context, id string) (Draft, error) {
	c, err := s.store.GetContentByID(ctx, id)
	if err != nil {
		return Draft{}, fmt.Errorf("load post %s: %w", id, err)
	}
	status := c.Status
	if status == "" {
		status = storage.StatusDraft
	}
	return Draft{
		ID:               c.ID,
		Title:            c.Title,
		Content:          c.Content,
		Status:           status,
		VideoURL:         c.VideoURL,
		MetaTitle:        c.MetaTitle,
		MetaDescription:  c.MetaDescription,
		FeaturedImageURL: c.FeaturedImage,
	}, nil
}

// Validate checks the draft. Failures are reported as *ValidationError.
func (s *Service) Validate(d Draft) error {
	return s.validate(d)
}

// Save validates d, uploads its embedded images and creates or updates the
// post. A stored featured image is kept unless a new one was chosen.
func (s *Service) Save(ctx context.Context, d Draft) (Saved, error) {
	if err := s.validate(d); err != nil {
		return Saved{}, err
	}
	log := s.log.WithFields(logrus.Fields{"id": d.ID, "title": d.Title})

	images, err := s.transformer.Apply(ctx, d.Content)
	if err != nil {
		log.WithError(err).Error("processing embedded images")
		return Saved{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	payload := s.payload(d, images.Markup)

	var stored storage.Content
	if d.ID == "" {
		stored, err = s.store.CreateContent(ctx, payload)
	} else {
		stored, err = s.store.UpdateContent(ctx, d.ID, payload)
	}
	if err != nil {
		log.WithError(err).Error("storing post")
		return Saved{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	log.WithFields(logrus.Fields{
		"stored_id":       stored.ID,
		"images_replaced": images.Replaced,
		"images_failed":   images.Failed,
	}).Info("post saved")
	return Saved{Content: stored, Images: images}, nil
}

// payload fills the meta defaults from the processed content.
func (s *Service) payload(d Draft, content string) storage.Payload {
	p := storage.Payload{
		Title:           d.Title,
		Content:         content,
		Status:          d.Status,
		VideoURL:        d.VideoURL,
		MetaTitle:       d.MetaTitle,
		MetaDescription: d.MetaDescription,
		FeaturedImage:   d.FeaturedImage,
	}
	if p.Status == "" {
		p.Status = storage.StatusDraft
	}
	if p.MetaTitle == "" {
		p.MetaTitle = d.Title
	}
	if p.MetaDescription == "" {
		p.MetaDescription = markup.Excerpt(content, s.config.ExcerptLength)
	}
	return p
}
