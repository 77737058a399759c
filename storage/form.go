package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rgonek/blogpen/media"
)

type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) error {
	return f.w.WriteField(name, value)
}

// file writes a file part carrying the file's own content type.
func (f *form) file(name string, file media.File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(name), quoteEscaper.Replace(file.Name)))
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := f.w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}

func (f *form) finish() ([]byte, string, error) {
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return f.buf.Bytes(), f.w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodePayload builds the create/update form. Empty optional fields are
// sent as empty strings so an update can clear them.
func encodePayload(p Payload) ([]byte, string, error) {
	f := newForm()
	fields := []struct{ name, value string }{
		{"title", p.Title},
		{"content", p.Content},
		{"status", p.Status},
		{"video_url", p.VideoURL},
		{"meta_title", p.MetaTitle},
		{"meta_description", p.MetaDescription},
	}
	for _, field := range fields {
		if err := f.field(field.name, field.value); err != nil {
			return nil, "", errors.Wrap(err, "encode form")
		}
	}
	if p.FeaturedImage != nil {
		if err := f.file("featured_image", *p.FeaturedImage); err != nil {
			return nil, "", errors.Wrap(err, "encode featured image")
		}
	}
	body, contentType, err := f.finish()
	if err != nil {
		return nil, "", errors.Wrap(err, "encode form")
	}
	return body, contentType, nil
}

// progressBody replays body on every attempt and reports bytes read.
func progressBody(body []byte, progress media.ProgressFunc) retryablehttp.ReaderFunc {
	return func() (io.Reader, error) {
		r := io.Reader(bytes.NewReader(body))
		if progress != nil {
			r = &progressReader{r: r, total: int64(len(body)), progress: progress}
		}
		return r, nil
	}
}

type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress media.ProgressFunc
}

// Len lets the request carry a Content-Length.
func (p *progressReader) Len() int {
	return int(p.total - p.sent)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.progress(p.sent, p.total)
	}
	return n, err
}
