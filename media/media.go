// Package media validates and uploads image and video files for the editor.
//
// The Coordinator owns at most one upload at a time and reports it as a Task
// snapshot. UploadAndGetURL is the stateless primitive used by the
// pre-persistence transform.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMediaType is returned when a file's MIME type does not match
	// the requested media kind.
	ErrInvalidMediaType = errors.New("invalid media type")
	// ErrMediaTooLarge is returned when a file exceeds the size limit of its kind.
	ErrMediaTooLarge = errors.New("media too large")
	// ErrUploadFailed wraps every transport or server failure of an upload.
	ErrUploadFailed = errors.New("upload failed")
	// ErrBusy is returned when an upload is started while another is active.
	ErrBusy = errors.New("another upload is in progress")
)

// Kind is the media category a file is uploaded as.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// KindOf classifies a MIME type by its prefix.
func KindOf(mimeType string) (Kind, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage, true
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo, true
	}
	return "", false
}

// File is a user-provided media payload.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Size returns the payload size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Asset is a durable reference to uploaded media.
type Asset struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// Uploader hands files to a storage backend.
type Uploader interface {
	UploadMedia(ctx context.Context, f File) (Asset, error)
}

// ProgressFunc receives the number of bytes sent so far out of total.
type ProgressFunc func(sent, total int64)

// ProgressUploader is an Uploader that can report real transfer progress.
type ProgressUploader interface {
	Uploader
	UploadMediaWithProgress(ctx context.Context, f File, progress ProgressFunc) (Asset, error)
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, f File) (Asset, error)

func (fn UploaderFunc) UploadMedia(ctx context.Context, f File) (Asset, error) {
	return fn(ctx, f)
}

// CheckFile checks f against the limits of kind. It performs no I/O.
func (c Config) CheckFile(f File, kind Kind) error {
	c = c.applyDefaults()

	var limit int64
	switch kind {
	case KindImage:
		limit = c.MaxImageBytes
	case KindVideo:
		limit = c.MaxVideoBytes
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMediaType, kind)
	}

	if got, ok := KindOf(f.MimeType); !ok || got != kind {
		return fmt.Errorf("%w: %q is not a valid %s type", ErrInvalidMediaType, f.MimeType, kind)
	}
	if f.Size() > limit {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte %s limit", ErrMediaTooLarge, f.Size(), limit, kind)
	}
	return nil
}

// Notice renders err as a message for the author.
func (c Config) Notice(err error, kind Kind) string {
	c = c.applyDefaults()

	switch {
	case errors.Is(err, ErrBusy):
		return "Another upload is still in progress."
	case errors.Is(err, ErrInvalidMediaType):
		if kind == KindVideo {
			return "Please choose a video file."
		}
		return "Please choose an image file."
	case errors.Is(err, ErrMediaTooLarge):
		limit := c.MaxImageBytes
		if kind == KindVideo {
			limit = c.MaxVideoBytes
		}
		return fmt.Sprintf("The %s must not be larger than %d MB.", kind, limit>>20)
	case err != nil:
		return "Upload failed: " + failureReason(err)
	}
	return ""
}

func failureReason(err error) string {
	msg := err.Error()
	return strings.TrimPrefix(msg, ErrUploadFailed.Error()+": ")
}
