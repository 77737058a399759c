package markup

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// FromMarkdown renders Markdown to markup and parses it into a document.
func (c *Codec) FromMarkdown(src string) (Result, error) {
	var buf bytes.Buffer
	if err := c.markdown.Convert([]byte(src), &buf); err != nil {
		return Result{}, fmt.Errorf("failed to render markdown: %w", err)
	}
	return c.Deserialize(buf.String())
}

// ToMarkdown converts markup to Markdown.
func ToMarkdown(markup string) (string, error) {
	md, err := htmltomarkdown.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("failed to convert markup to markdown: %w", err)
	}
	return md, nil
}

var stripPolicy = newStripPolicy()

func newStripPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}

// PlainText strips every tag from markup and collapses whitespace.
func PlainText(markup string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(markup))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns the first limit runes of the visible text of markup,
// followed by "..." when the text was cut.
func Excerpt(markup string, limit int) string {
	text := PlainText(markup)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}
