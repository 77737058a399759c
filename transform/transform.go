// Package transform rewrites markup before it is persisted: images embedded
// as data URLs are uploaded and replaced by durable asset URLs.
package transform

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rgonek/blogpen/media"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const embeddedImageSelector = `img[src^="data:image"]`

var errPayloadNotFound = errors.New("payload not found as a quoted src value")

// Uploader stores a file and returns its URL. *media.Coordinator implements it.
type Uploader interface {
	UploadAndGetURL(ctx context.Context, f media.File) (string, error)
}

// Failure describes an embedded image that was left in place.
type Failure struct {
	// Index is the position of the payload among distinct embedded images,
	// in document order.
	Index    int
	MimeType string
	Err      error
}

// Result is the rewritten markup. Replaced and Failed count distinct
// payloads.
type Result struct {
	Markup   string
	Replaced int
	Failed   int
	Failures []Failure
}

// Transformer uploads embedded images found in markup.
type Transformer struct {
	config   Config
	uploader Uploader
	log      logrus.FieldLogger
	now      func() time.Time
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the transformer logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Transformer) {
		t.log = log
	}
}

// WithClock sets the clock used to name uploaded files.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) {
		t.now = now
	}
}

// New creates a Transformer uploading through u.
func New(cfg Config, u Uploader, opts ...Option) (*Transformer, error) {
	cfg = cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("transform: nil uploader")
	}

	t := &Transformer{
		config:   cfg,
		uploader: u,
		log:      logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Apply uploads every distinct embedded image of markup and replaces all of
// its occurrences with the returned URL. A failed image is logged and left
// in place; only cancellation of ctx fails the whole transform.
func (t *Transformer) Apply(ctx context.Context, markup string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	sources, err := embeddedImages(markup)
	if err != nil {
		return Result{}, fmt.Errorf("scan markup: %w", err)
	}
	res := Result{Markup: markup}
	if len(sources) == 0 {
		return res, nil
	}

	stamp := t.now().UnixMilli()
	urls := make([]string, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.config.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			url, err := t.upload(gctx, src, t.fileName(stamp, i, src))
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("transform cancelled: %w", err)
	}

	for i, src := range sources {
		if errs[i] == nil {
			var ok bool
			if res.Markup, ok = replacePayload(res.Markup, src, urls[i]); !ok {
				errs[i] = errPayloadNotFound
			}
		}
		if errs[i] != nil {
			res.Failed++
			res.Failures = append(res.Failures, Failure{Index: i, MimeType: mimeOf(src), Err: errs[i]})
			t.log.WithError(errs[i]).WithField("index", i).Warn("embedded image left in place")
			continue
		}
		res.Replaced++
	}

	t.log.WithFields(logrus.Fields{
		"replaced": res.Replaced,
		"failed":   res.Failed,
	}).Info("embedded images processed")
	return res, nil
}

func (t *Transformer) upload(ctx context.Context, src, name string) (string, error) {
	p, err := decodeDataURL(src)
	if err != nil {
		return "", err
	}
	return t.uploader.UploadAndGetURL(ctx, media.File{Name: name, MimeType: p.mimeType, Data: p.data})
}

// fileName follows image-<unix-millis>-<seq>.<subtype>, seq counting from 1.
func (t *Transformer) fileName(stamp int64, i int, src string) string {
	return fmt.Sprintf("%s-%d-%d.%s", t.config.FilePrefix, stamp, i+1, subtype(mimeOf(src)))
}

func mimeOf(src string) string {
	rest, _ := cutPrefixFold(src, "data:")
	meta, _, _ := strings.Cut(rest, ",")
	mimeType, _, _ := strings.Cut(meta, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// embeddedImages returns the distinct data URL sources of images in
// document order.
func embeddedImages(markup string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var sources []string
	doc.Find(embeddedImageSelector).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || seen[src] {
			return
		}
		seen[src] = true
		sources = append(sources, src)
	})
	return sources, nil
}

// replacePayload swaps every quoted attribute value equal to src for url,
// in escaped form as the serializer writes it or verbatim. A payload that
// is a prefix of a longer one never matches inside it.
func replacePayload(markup, src, url string) (string, bool) {
	escURL := html.EscapeString(url)
	found := false
	for _, q := range []string{`"`, `'`} {
		for _, form := range []string{html.EscapeString(src), src} {
			old := q + form + q
			if strings.Contains(markup, old) {
				markup = strings.ReplaceAll(markup, old, q+escURL+q)
				found = true
			}
		}
	}
	return markup, found
}
