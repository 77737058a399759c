package markup

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EmbedPolicy allows the markup raw embeds are made of: iframes and native
// video players over http(s) sources.
func EmbedPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowElements("div", "iframe", "video", "source")

	p.AllowAttrs("class").OnElements("div")
	p.AllowAttrs("src").OnElements("iframe", "video", "source")
	p.AllowAttrs("width", "height").Matching(bluemonday.Number).OnElements("iframe", "video")
	p.AllowAttrs("frameborder").Matching(bluemonday.Number).OnElements("iframe")
	p.AllowAttrs("allow", "allowfullscreen", "title", "loading", "referrerpolicy").OnElements("iframe")
	p.AllowAttrs("controls", "poster", "preload", "loop", "muted", "playsinline").OnElements("video")
	p.AllowAttrs("type").OnElements("source")

	return p
}

var embedPolicy = EmbedPolicy()

// NormalizeEmbed sanitizes raw embed markup and returns it in the canonical
// form the parser produces for embeds, so inserted embeds round-trip.
func NormalizeEmbed(raw string) string {
	clean := embedPolicy.Sanitize(raw)
	nodes, err := html.ParseFragment(strings.NewReader(clean), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(renderNodes(nodes))
}
