package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rgonek/blogpen/media"
	"github.com/rgonek/blogpen/storage/storagetest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t testing.TB, baseURL string, tokens TokenSource) *Client {
	t.Helper()
	log, _ := test.NewNullLogger()
	c, err := NewClient(Config{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	}, tokens, WithLogger(log))
	require.NoError(t, err)
	return c
}

func newFakeAPI(t testing.TB) *storagetest.Server {
	t.Helper()
	srv := storagetest.NewServer()
	t.Cleanup(srv.Close)
	return srv
}

func TestUploadMedia(t *testing.T) {
	srv := newFakeAPI(t)
	srv.Token = "secret"
	c := newTestClient(t, srv.BaseURL(), StaticToken("secret"))

	var sent, total atomic.Int64
	f := media.File{Name: "a.png", MimeType: "image/png", Data: []byte("png-bytes")}
	asset, err := c.UploadMediaWithProgress(context.Background(), f, func(s, tot int64) {
		if s < sent.Load() {
			t.Errorf("progress went back from %d to %d", sent.Load(), s)
		}
		sent.Store(s)
		total.Store(tot)
	})
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/uploads/1-a.png", asset.URL)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, total.Load(), sent.Load())
	assert.Positive(t, total.Load())

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "image", uploads[0].Field)
	assert.Equal(t, "a.png", uploads[0].Name)
	assert.Equal(t, "image/png", uploads[0].ContentType)
	assert.Equal(t, []byte("png-bytes"), uploads[0].Data)
}

func TestUploadFailureIsNotRetried(t *testing.T) {
	srv := newFakeAPI(t)
	var calls atomic.Int32
	srv.FailUpload = func(string) bool {
		calls.Add(1)
		return true
	}
	c := newTestClient(t, srv.BaseURL(), nil)

	_, err := c.UploadMedia(context.Background(), media.File{Name: "a.png", MimeType: "image/png", Data: []byte{1}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "storage unavailable", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnauthorized(t *testing.T) {
	srv := newFakeAPI(t)
	srv.Token = "secret"
	c := newTestClient(t, srv.BaseURL(), StaticToken("expired"))

	_, err := c.GetContentByID(context.Background(), "1")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = c.UploadMedia(context.Background(), media.File{Name: "a.png", MimeType: "image/png"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestContentLifecycle(t *testing.T) {
	srv := newFakeAPI(t)
	c := newTestClient(t, srv.BaseURL(), nil)
	ctx := context.Background()

	featured := media.File{Name: "cover.jpg", MimeType: "image/jpeg", Data: []byte("jpg")}
	created, err := c.CreateContent(ctx, Payload{
		Title:           "Hello, World!",
		Content:         "<p>hi</p>",
		Status:          StatusDraft,
		MetaTitle:       "Hello",
		MetaDescription: "hi",
		FeaturedImage:   &featured,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "hello-world", created.Slug)
	assert.Equal(t, srv.URL+"/uploads/1-cover.jpg", created.FeaturedImage)
	assert.False(t, created.CreatedAt.IsZero())

	updated, err := c.UpdateContent(ctx, created.ID, Payload{
		Title:   "Hello again",
		Content: "<p>bye</p>",
		Status:  StatusPublished,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, StatusPublished, updated.Status)
	assert.Equal(t, created.FeaturedImage, updated.FeaturedImage, "featured image is kept when not re-sent")
	assert.Len(t, srv.Uploads(), 1)

	got, err := c.GetContentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>bye</p>", got.Content)

	bySlug, err := c.GetContentBySlug(ctx, "hello-again")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	srv.Put(storagetest.Post{Title: "Other", Slug: "other", Content: "<p>x</p>", Status: StatusDraft})
	page, err := c.ListContent(ctx, ListParams{Status: StatusPublished})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.Equal(t, 1, page.Total)

	require.NoError(t, c.DeleteContent(ctx, created.ID))
	_, err = c.GetContentByID(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(c.DeleteContent(ctx, created.ID), ErrNotFound))

	require.NoError(t, c.Health(ctx))
}

func TestSaveRejected(t *testing.T) {
	srv := newFakeAPI(t)
	c := newTestClient(t, srv.BaseURL(), nil)

	_, err := c.CreateContent(context.Background(), Payload{Title: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "title and content are required", apiErr.Message)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"abc","title":"T","status":"draft"}}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, nil)

	got, err := c.GetContentByID(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		data    string
		err     string
	}{
		{name: "data", status: 200, payload: `{"success":true,"data":{"url":"u"}}`, data: `{"url":"u"}`},
		{name: "no success flag", status: 200, payload: `{"data":[1]}`, data: `[1]`},
		{name: "success false", status: 200, payload: `{"success":false,"error":"nope"}`, err: "blog api: status 200: nope"},
		{name: "message field", status: 422, payload: `{"message":"bad"}`, err: "blog api: status 422: bad"},
		{name: "html error page", status: 502, payload: `<html>`, err: "blog api: status 502"},
		{name: "malformed", status: 200, payload: `not json`, err: "blog api: status 200: malformed response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := decodeEnvelope(tt.status, []byte(tt.payload))
			if tt.err != "" {
				assert.EqualError(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.data, data.Raw)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.applyDefaults().Validate())
	assert.Error(t, Config{BaseURL: "localhost:5000"}.applyDefaults().Validate())
	assert.Error(t, Config{RetryMax: -2}.applyDefaults().Validate())
	assert.Error(t, Config{RetryWaitMin: time.Minute, RetryWaitMax: time.Second}.applyDefaults().Validate())

	_, err := NewClient(Config{BaseURL: "ftp://x"}, nil)
	assert.Error(t, err)
}
