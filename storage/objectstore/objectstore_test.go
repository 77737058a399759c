package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rgonek/blogpen/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c2f3e-8a5b-4c7d-9e0f-1a2b3c4d5e6f")

	tests := []struct {
		prefix string
		name   string
		want   string
	}{
		{"uploads", "photo.PNG", "uploads/6f1c2f3e-8a5b-4c7d-9e0f-1a2b3c4d5e6f.png"},
		{"uploads", `C:\Users\me\clip.mp4`, "uploads/6f1c2f3e-8a5b-4c7d-9e0f-1a2b3c4d5e6f.mp4"},
		{"media/2024", "noext", "media/2024/6f1c2f3e-8a5b-4c7d-9e0f-1a2b3c4d5e6f"},
		{"uploads", "weird.p g", "uploads/6f1c2f3e-8a5b-4c7d-9e0f-1a2b3c4d5e6f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.prefix, tt.name, id))
		})
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{Endpoint: "minio.local:9000", Bucket: "blog", UseSSL: true}.applyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://minio.local:9000/blog", cfg.PublicURL)
	assert.Equal(t, "uploads", cfg.Prefix)

	cfg = Config{Endpoint: "minio.local:9000", Bucket: "blog", PublicURL: "https://cdn.x.test/"}.applyDefaults()
	assert.Equal(t, "https://cdn.x.test", cfg.PublicURL)

	assert.Error(t, Config{Bucket: "blog"}.applyDefaults().Validate())
	assert.Error(t, Config{Endpoint: "minio.local:9000"}.applyDefaults().Validate())
}

func TestNewDoesNotDial(t *testing.T) {
	u, err := New(Config{Endpoint: "127.0.0.1:1", Bucket: "blog", AccessKey: "k", SecretKey: "s"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1/blog", u.config.PublicURL)
}

// fakeS3 accepts bucket existence checks and single-part object PUTs.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		if r.URL.Path != "/blog" && r.URL.Path != "/blog/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.objects[r.URL.Path] = data
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestUploadMedia(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	u, err := New(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Bucket:    "blog",
		AccessKey: "k",
		SecretKey: "s",
		Region:    "us-east-1",
		PublicURL: "https://cdn.x.test",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, u.CheckBucket(context.Background()))

	asset, err := u.UploadMedia(context.Background(), media.File{Name: "a.png", MimeType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.URL, "https://cdn.x.test/uploads/"), asset.URL)
	assert.True(t, strings.HasSuffix(asset.URL, ".png"), asset.URL)
	assert.Equal(t, "image/png", asset.MimeType)

	key := "/blog/" + strings.TrimPrefix(asset.URL, "https://cdn.x.test/")
	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Contains(t, fake.objects, key)
	assert.Contains(t, string(fake.objects[key]), "png")
	assert.Equal(t, "image/png", fake.types[key])
}
