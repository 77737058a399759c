package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rgonek/blogpen/config"
	"github.com/rgonek/blogpen/markup"
	"github.com/rgonek/blogpen/media"
	"github.com/rgonek/blogpen/post"
	"github.com/rgonek/blogpen/storage"
	"github.com/rgonek/blogpen/storage/objectstore"
	"github.com/rgonek/blogpen/transform"
	"github.com/sirupsen/logrus"
)

const (
	presetBalanced = "balanced"
	presetStrict   = "strict"
	presetLossy    = "lossy"
)

func presetConfig(preset string) (markup.Config, error) {
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case "", presetBalanced:
		return markup.Config{}, nil
	case presetStrict:
		return markup.Config{UnknownTags: markup.UnknownError}, nil
	case presetLossy:
		return markup.Config{UnknownTags: markup.UnknownSkip}, nil
	default:
		return markup.Config{}, fmt.Errorf("unknown preset %q (allowed: balanced, strict, lossy)", preset)
	}
}

func resolveConfig(preset string, strict bool) (markup.Config, error) {
	cfg, err := presetConfig(preset)
	if err != nil {
		return markup.Config{}, err
	}
	if strict {
		cfg.UnknownTags = markup.UnknownError
	}
	return cfg, nil
}

// app holds what the root command resolved for its subcommands.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	preset string
	strict bool
}

func (a *app) markupConfig() (markup.Config, error) {
	return resolveConfig(a.preset, a.strict)
}

func (a *app) codec() (*markup.Codec, error) {
	cfg, err := a.markupConfig()
	if err != nil {
		return nil, err
	}
	return markup.New(cfg)
}

func (a *app) client() (*storage.Client, error) {
	return storage.NewClient(a.cfg.Storage(), storage.StaticToken(a.cfg.Token), storage.WithLogger(a.log))
}

// uploader picks the media backend. The API client is used for the api
// backend.
func (a *app) uploader(client *storage.Client) (media.Uploader, error) {
	switch a.cfg.MediaBackend {
	case config.BackendMinio:
		u, err := objectstore.New(a.cfg.ObjectStore(), a.log)
		if err != nil {
			return nil, err
		}
		return u, nil
	default:
		return client, nil
	}
}

func (a *app) coordinator(u media.Uploader, opts ...media.Option) (*media.Coordinator, error) {
	opts = append([]media.Option{media.WithLogger(a.log)}, opts...)
	return media.NewCoordinator(a.cfg.Media(), u, opts...)
}

func (a *app) postService(client *storage.Client) (*post.Service, error) {
	u, err := a.uploader(client)
	if err != nil {
		return nil, err
	}
	uploads, err := a.coordinator(u)
	if err != nil {
		return nil, err
	}
	tr, err := transform.New(a.cfg.Transform(), uploads, transform.WithLogger(a.log))
	if err != nil {
		return nil, err
	}

	cfg := a.cfg.Post()
	if cfg.Markup, err = a.markupConfig(); err != nil {
		return nil, err
	}
	return post.NewService(cfg, client, tr, post.WithLogger(a.log))
}

// readInput reads a file argument. "-" reads stdin.
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// readMedia loads a file and detects its MIME type from the extension,
// falling back to content sniffing.
func readMedia(path string) (media.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return media.File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return media.File{Name: filepath.Base(path), MimeType: strings.TrimSpace(mimeType), Data: data}, nil
}

func printWarnings(w io.Writer, warnings []markup.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "warning: %s (%s)\n", warn.Message, warn.Type)
	}
}

func withContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
