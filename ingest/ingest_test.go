package ingest

import (
	"testing"

	"github.com/rgonek/blogpen/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPickerKeepsDeclaredKind(t *testing.T) {
	f := media.File{Name: "clip.mp4", MimeType: "video/mp4", Data: []byte{1}}
	req := FromPicker(f, media.KindImage)
	assert.Equal(t, media.KindImage, req.Kind)
	assert.Equal(t, f, req.File)
}

func TestFromDrop(t *testing.T) {
	png := media.File{Name: "a.png", MimeType: "image/png"}
	mp4 := media.File{Name: "a.mp4", MimeType: "video/mp4"}
	pdf := media.File{Name: "a.pdf", MimeType: "application/pdf"}

	tests := []struct {
		name  string
		files []media.File
		want  Request
		err   error
	}{
		{name: "image", files: []media.File{png}, want: Request{File: png, Kind: media.KindImage}},
		{name: "video", files: []media.File{mp4}, want: Request{File: mp4, Kind: media.KindVideo}},
		{name: "first file wins", files: []media.File{mp4, png}, want: Request{File: mp4, Kind: media.KindVideo}},
		{name: "document", files: []media.File{pdf, png}, err: ErrUnsupportedDrop},
		{name: "no files", err: ErrUnsupportedDrop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromDrop(DataTransfer{Files: tt.files})
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				assert.Equal(t, Request{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromPaste(t *testing.T) {
	t.Run("first image item", func(t *testing.T) {
		got := FromPaste(Clipboard{Items: []ClipboardItem{
			{Type: "text/plain", Data: []byte("hello")},
			{Type: "image/png", Data: []byte{1, 2}},
			{Type: "image/jpeg", Data: []byte{3}},
		}})
		require.NotNil(t, got.Request)
		assert.True(t, got.PreventDefault)
		assert.Equal(t, media.KindImage, got.Request.Kind)
		assert.Equal(t, "image/png", got.Request.File.MimeType)
		assert.Equal(t, "pasted-image", got.Request.File.Name)
		assert.Equal(t, []byte{1, 2}, got.Request.File.Data)
	})

	t.Run("image wins over markdown", func(t *testing.T) {
		got := FromPaste(Clipboard{Items: []ClipboardItem{
			{Type: "text/markdown", Data: []byte("# hi")},
			{Type: "image/gif", Name: "a.gif"},
		}})
		require.NotNil(t, got.Request)
		assert.Equal(t, "a.gif", got.Request.File.Name)
		assert.Empty(t, got.Markdown)
	})

	t.Run("markdown fragment", func(t *testing.T) {
		got := FromPaste(Clipboard{Items: []ClipboardItem{
			{Type: "text/plain", Data: []byte("hi")},
			{Type: "text/markdown; charset=utf-8", Data: []byte("**hi**")},
		}})
		assert.Nil(t, got.Request)
		assert.True(t, got.PreventDefault)
		assert.Equal(t, "**hi**", got.Markdown)
	})

	t.Run("plain text is left alone", func(t *testing.T) {
		got := FromPaste(Clipboard{Items: []ClipboardItem{{Type: "text/plain", Data: []byte("hi")}}})
		assert.Equal(t, Paste{}, got)
	})
}
