package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rgonek/blogpen/media"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Client talks to the blog API. It implements media.ProgressUploader.
type Client struct {
	config Config
	http   *retryablehttp.Client
	tokens TokenSource
	log    logrus.FieldLogger
}

var _ media.ProgressUploader = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http.HTTPClient = hc
	}
}

// NewClient creates a Client. tokens may be nil for anonymous access.
func NewClient(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	cfg = cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = StaticToken("")
	}

	cl := retryablehttp.NewClient()
	cl.RetryMax = max(cfg.RetryMax, 0)
	cl.RetryWaitMin = cfg.RetryWaitMin
	cl.RetryWaitMax = cfg.RetryWaitMax
	cl.HTTPClient.Timeout = cfg.Timeout
	cl.CheckRetry = checkRetry
	cl.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		config: cfg,
		http:   cl,
		tokens: tokens,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	cl.Logger = leveledLogger{log: c.log}
	return c, nil
}

// checkRetry retries connection failures and server errors, except for
// requests that create content: a POST the server answered is never resent.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.Request != nil && resp.Request.Method == http.MethodPost {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// UploadMedia uploads f through the editor upload endpoint.
func (c *Client) UploadMedia(ctx context.Context, f media.File) (media.Asset, error) {
	return c.UploadMediaWithProgress(ctx, f, nil)
}

// UploadMediaWithProgress uploads f and reports bytes sent to progress.
func (c *Client) UploadMediaWithProgress(ctx context.Context, f media.File, progress media.ProgressFunc) (media.Asset, error) {
	form := newForm()
	if err := form.file("image", f); err != nil {
		return media.Asset{}, errors.Wrap(err, "encode upload")
	}
	body, contentType, err := form.finish()
	if err != nil {
		return media.Asset{}, errors.Wrap(err, "encode upload")
	}

	data, err := c.do(ctx, http.MethodPost, "/blogs/upload-image", contentType, progressBody(body, progress))
	if err != nil {
		return media.Asset{}, errors.Wrapf(err, "upload %s", f.Name)
	}
	u := data.Get("url").String()
	if u == "" {
		return media.Asset{}, errors.Errorf("upload %s: response has no url", f.Name)
	}
	c.log.WithFields(logrus.Fields{"file": f.Name, "url": u}).Debug("media uploaded")
	return media.Asset{URL: u, MimeType: f.MimeType}, nil
}

// CreateContent stores a new post.
func (c *Client) CreateContent(ctx context.Context, p Payload) (Content, error) {
	body, contentType, err := encodePayload(p)
	if err != nil {
		return Content{}, err
	}
	data, err := c.do(ctx, http.MethodPost, "/blogs", contentType, bytesBody(body))
	if err != nil {
		return Content{}, errors.Wrap(err, "create content")
	}
	return parseContent(data), nil
}

// UpdateContent replaces the post with the given id.
func (c *Client) UpdateContent(ctx context.Context, id string, p Payload) (Content, error) {
	body, contentType, err := encodePayload(p)
	if err != nil {
		return Content{}, err
	}
	data, err := c.do(ctx, http.MethodPut, "/blogs/"+url.PathEscape(id), contentType, bytesBody(body))
	if err != nil {
		return Content{}, errors.Wrapf(err, "update content %s", id)
	}
	return parseContent(data), nil
}

// GetContentByID fetches a post by id.
func (c *Client) GetContentByID(ctx context.Context, id string) (Content, error) {
	data, err := c.do(ctx, http.MethodGet, "/blogs/"+url.PathEscape(id), "", nil)
	if err != nil {
		return Content{}, errors.Wrapf(err, "get content %s", id)
	}
	return parseContent(data), nil
}

// GetContentBySlug fetches a post by slug.
func (c *Client) GetContentBySlug(ctx context.Context, slug string) (Content, error) {
	data, err := c.do(ctx, http.MethodGet, "/blogs/slug/"+url.PathEscape(slug), "", nil)
	if err != nil {
		return Content{}, errors.Wrapf(err, "get content by slug %s", slug)
	}
	return parseContent(data), nil
}

// DeleteContent removes a post.
func (c *Client) DeleteContent(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/blogs/"+url.PathEscape(id), "", nil)
	return errors.Wrapf(err, "delete content %s", id)
}

// ListContent returns one page of posts.
func (c *Client) ListContent(ctx context.Context, params ListParams) (Page, error) {
	path := "/blogs"
	if q := params.values().Encode(); q != "" {
		path += "?" + q
	}
	data, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return Page{}, errors.Wrap(err, "list content")
	}
	return parsePage(data), nil
}

// Health checks that the API is reachable.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", "", nil)
	return errors.Wrap(err, "health")
}

// do sends a request and returns the data member of the response envelope.
func (c *Client) do(ctx context.Context, method, path, contentType string, body retryablehttp.ReaderFunc) (gjson.Result, error) {
	var raw interface{}
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.config.BaseURL+path, raw)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "token")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "read response")
	}
	c.log.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("blog api request")

	return decodeEnvelope(resp.StatusCode, payload)
}

// decodeEnvelope reads {success, data, error} responses.
func decodeEnvelope(status int, payload []byte) (gjson.Result, error) {
	if status == http.StatusUnauthorized {
		return gjson.Result{}, ErrUnauthorized
	}
	if status == http.StatusNotFound {
		return gjson.Result{}, errors.WithStack(ErrNotFound)
	}

	var env gjson.Result
	if gjson.ValidBytes(payload) {
		env = gjson.ParseBytes(payload)
	}
	message := env.Get("error").String()
	if message == "" {
		message = env.Get("message").String()
	}

	if status >= 300 {
		return gjson.Result{}, &APIError{Status: status, Message: message}
	}
	if !env.Exists() {
		return gjson.Result{}, &APIError{Status: status, Message: "malformed response"}
	}
	if success := env.Get("success"); success.Exists() && !success.Bool() {
		return gjson.Result{}, &APIError{Status: status, Message: message}
	}
	return env.Get("data"), nil
}

func parseContent(r gjson.Result) Content {
	id := r.Get("id").String()
	if id == "" {
		id = r.Get("_id").String()
	}
	return Content{
		ID:              id,
		Title:           r.Get("title").String(),
		Slug:            r.Get("slug").String(),
		Content:         r.Get("content").String(),
		Excerpt:         r.Get("excerpt").String(),
		Status:          r.Get("status").String(),
		VideoURL:        r.Get("video_url").String(),
		FeaturedImage:   r.Get("featured_image").String(),
		MetaTitle:       r.Get("meta_title").String(),
		MetaDescription: r.Get("meta_description").String(),
		CreatedAt:       r.Get("created_at").Time(),
		UpdatedAt:       r.Get("updated_at").Time(),
	}
}

// parsePage accepts a bare array of posts or {blogs, pagination}.
func parsePage(r gjson.Result) Page {
	items := r
	if !r.IsArray() {
		items = r.Get("blogs")
		if !items.Exists() {
			items = r.Get("items")
		}
	}

	var page Page
	items.ForEach(func(_, v gjson.Result) bool {
		page.Items = append(page.Items, parseContent(v))
		return true
	})

	pagination := r.Get("pagination")
	page.Total = int(pagination.Get("total").Int())
	page.Page = int(pagination.Get("page").Int())
	page.TotalPages = int(pagination.Get("pages").Int())
	if page.Total == 0 {
		page.Total = len(page.Items)
	}
	return page
}

func bytesBody(b []byte) retryablehttp.ReaderFunc {
	return func() (io.Reader, error) {
		return bytes.NewReader(b), nil
	}
}
