package command

import (
	"html"
	"strings"

	"github.com/rgonek/blogpen/document"
	"github.com/rgonek/blogpen/markup"
)

const (
	noticeImageNeedsSource = "An image needs a source URL."
	noticeEmbedRejected    = "The embed markup contained nothing that can be shown."
	noticeEmbedTooLarge    = "The embed markup is too large."
)

// InsertImage inserts an inline image at the end of the selection.
type InsertImage struct {
	Src string
	Alt string
}

func (c InsertImage) Name() string { return "insert-image" }

func (c InsertImage) Apply(doc document.Document, sel Selection) Outcome {
	src := strings.TrimSpace(c.Src)
	if src == "" {
		out := unchanged(doc, sel)
		out.Notice = noticeImageNeedsSource
		return out
	}

	d := newDraft(doc)
	d.ensureTextblock()
	at := d.clamp(sel).To()

	block := d.textblock(at.Block)
	block.Children = insertInline(block.Children, at.Offset, document.Image(src, c.Alt))
	return changed(d.build(), Cursor(at.Block, at.Offset+1))
}

// InsertRawEmbed inserts a block of raw markup, such as a video player, after
// the textblock holding the selection. The markup is sanitized first and
// must fit the default embed size limit of the markup codec.
type InsertRawEmbed struct {
	HTML string
}

func (c InsertRawEmbed) Name() string { return "insert-raw-embed" }

func (c InsertRawEmbed) Apply(doc document.Document, sel Selection) Outcome {
	embed := markup.NormalizeEmbed(c.HTML)
	if embed == "" {
		out := unchanged(doc, sel)
		out.Notice = noticeEmbedRejected
		return out
	}
	if len(embed) > markup.DefaultMaxEmbedBytes {
		out := unchanged(doc, sel)
		out.Notice = noticeEmbedTooLarge
		return out
	}
	return InsertBlocks{Blocks: []document.Tree{document.Embed(embed)}}.Apply(doc, sel)
}

// InsertBlocks inserts blocks after the textblock holding the selection. An
// empty paragraph at the cursor is replaced. A paragraph is added after the
// inserted blocks when nothing follows that can hold the cursor.
type InsertBlocks struct {
	Blocks []document.Tree
}

func (c InsertBlocks) Name() string { return "insert-blocks" }

func (c InsertBlocks) Apply(doc document.Document, sel Selection) Outcome {
	var blocks []document.Tree
	for _, b := range c.Blocks {
		if b.Kind.IsBlock() {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) == 0 {
		return unchanged(doc, sel)
	}

	d := newDraft(doc)
	d.ensureTextblock()
	at := d.clamp(sel).To()

	path := d.blocks[at.Block]
	parent := d.at(path[:len(path)-1])
	idx := path[len(path)-1]

	current := parent.Children[idx]
	replace := current.Kind == document.KindParagraph && len(current.Children) == 0 && current.Attrs == document.Attrs{}
	from, to := idx+1, idx+1
	firstBlock := at.Block + 1
	if replace {
		from, to = idx, idx+1
		firstBlock = at.Block
	}

	insertedBlocks := 0
	for _, b := range blocks {
		insertedBlocks += len(textblockPaths(document.Tree{Children: []document.Tree{b}}, nil))
	}

	next := to
	if next >= len(parent.Children) || !parent.Children[next].Kind.IsTextblock() {
		blocks = append(blocks, document.Paragraph())
	}
	parent.Children = splice(parent.Children, from, to, blocks)
	d.reindex()

	cursor := Cursor(firstBlock+insertedBlocks, 0)
	if insertedBlocks > 0 {
		last := firstBlock + insertedBlocks - 1
		cursor = Cursor(last, d.blockLen(last))
	}
	return changed(d.build(), d.clamp(cursor))
}

// InsertAsset inserts an uploaded asset at the selection: images inline,
// videos as a player block and anything else as a link.
type InsertAsset struct {
	URL      string
	MimeType string
}

func (c InsertAsset) Name() string { return "insert-asset-node" }

func (c InsertAsset) Apply(doc document.Document, sel Selection) Outcome {
	switch {
	case strings.HasPrefix(c.MimeType, "image/"):
		return InsertImage{Src: c.URL}.Apply(doc, sel)
	case strings.HasPrefix(c.MimeType, "video/"):
		return InsertRawEmbed{HTML: VideoPlayerHTML(c.URL)}.Apply(doc, sel)
	}

	url := strings.TrimSpace(c.URL)
	if url == "" {
		return unchanged(doc, sel)
	}
	d := newDraft(doc)
	d.ensureTextblock()
	at := d.clamp(sel).To()
	block := d.textblock(at.Block)
	block.Children = insertInline(block.Children, at.Offset, document.Text(url, document.Link(url)))
	return changed(d.build(), Cursor(at.Block, at.Offset+len([]rune(url))))
}

// VideoEmbedHTML returns the iframe markup used to embed a hosted video page.
func VideoEmbedHTML(url string) string {
	return `<div class="video-container"><iframe src="` + html.EscapeString(url) + `" frameborder="0" allowfullscreen></iframe></div>`
}

// VideoPlayerHTML returns the markup of a native player for a video file.
func VideoPlayerHTML(url string) string {
	return `<video controls src="` + html.EscapeString(url) + `"></video>`
}
