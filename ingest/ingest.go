// Package ingest turns the ways media reaches the editor (toolbar picker,
// drag-and-drop, clipboard paste) into upload requests.
package ingest

import (
	"errors"
	"strings"

	"github.com/rgonek/blogpen/media"
)

// ErrUnsupportedDrop is returned when a drop carries no image or video file.
var ErrUnsupportedDrop = errors.New("unsupported drop")

const markdownType = "text/markdown"

// Request asks the upload coordinator to upload File as Kind.
type Request struct {
	File media.File
	Kind media.Kind
}

// FromPicker builds a request for a file chosen through a toolbar button.
// The button decides the kind; the coordinator checks it against the file.
func FromPicker(f media.File, kind media.Kind) Request {
	return Request{File: f, Kind: kind}
}

// DataTransfer is the payload of a drop event.
type DataTransfer struct {
	Files []media.File
}

// FromDrop classifies the first dropped file by its MIME type.
func FromDrop(dt DataTransfer) (Request, error) {
	if len(dt.Files) == 0 {
		return Request{}, ErrUnsupportedDrop
	}
	f := dt.Files[0]
	kind, ok := media.KindOf(f.MimeType)
	if !ok {
		return Request{}, ErrUnsupportedDrop
	}
	return Request{File: f, Kind: kind}, nil
}

// ClipboardItem is one entry of a paste event.
type ClipboardItem struct {
	Type string
	Name string
	Data []byte
}

// Clipboard is the payload of a paste event.
type Clipboard struct {
	Items []ClipboardItem
}

// Paste is the outcome of a paste event. When PreventDefault is false the
// editing surface handles the paste itself.
type Paste struct {
	Request        *Request
	Markdown       string
	PreventDefault bool
}

// FromPaste takes the first image item as an upload request. Without an
// image, a Markdown item becomes a fragment to insert.
func FromPaste(cb Clipboard) Paste {
	for _, item := range cb.Items {
		if !strings.Contains(strings.ToLower(item.Type), "image") {
			continue
		}
		name := item.Name
		if name == "" {
			name = "pasted-image"
		}
		return Paste{
			Request: &Request{
				File: media.File{Name: name, MimeType: item.Type, Data: item.Data},
				Kind: media.KindImage,
			},
			PreventDefault: true,
		}
	}

	for _, item := range cb.Items {
		if strings.EqualFold(mimeBase(item.Type), markdownType) {
			return Paste{Markdown: string(item.Data), PreventDefault: true}
		}
	}
	return Paste{}
}

func mimeBase(t string) string {
	base, _, _ := strings.Cut(t, ";")
	return strings.TrimSpace(base)
}
