package command

import (
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rgonek/blogpen/document"
	"github.com/rgonek/blogpen/markup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	p    = document.Paragraph
	text = document.Text
	bold = document.Bold
)

func span(block, from, to int) Selection {
	return Range(Position{Block: block, Offset: from}, Position{Block: block, Offset: to})
}

func assertDoc(t *testing.T, want, got document.Document) {
	t.Helper()
	assert.True(t, document.Equal(want, got), "want %s\n got %s", markup.Serialize(want), markup.Serialize(got))
	require.NoError(t, document.Validate(got))
}

func TestToggleMarkIsItsOwnInverse(t *testing.T) {
	base := document.New(p(text("hello world")), p(text("second line")))

	marks := []document.MarkType{document.MarkBold, document.MarkItalic, document.MarkUnderline}
	selections := map[string]Selection{
		"word":        span(0, 0, 5),
		"whole block": span(0, 0, 11),
		"two blocks":  Range(Position{Block: 0, Offset: 6}, Position{Block: 1, Offset: 6}),
		"backwards":   Range(Position{Block: 1, Offset: 6}, Position{Block: 0, Offset: 6}),
	}

	for _, mark := range marks {
		for name, sel := range selections {
			t.Run(string(mark)+"/"+name, func(t *testing.T) {
				once := ToggleMark{Mark: mark}.Apply(base, sel)
				require.True(t, once.Changed)
				assert.False(t, document.Equal(base, once.Document))
				assert.True(t, IsMarkActive(once.Document, sel, mark))

				twice := ToggleMark{Mark: mark}.Apply(once.Document, once.Selection)
				assertDoc(t, base, twice.Document)
				assert.Equal(t, sel, twice.Selection)
			})
		}
	}
}

func TestToggleMarkSplitsRuns(t *testing.T) {
	base := document.New(p(text("hello world")), p(text("second line")))

	out := ToggleMark{Mark: document.MarkBold}.Apply(base, Range(Position{Block: 0, Offset: 6}, Position{Block: 1, Offset: 6}))
	assertDoc(t, document.New(
		p(text("hello "), text("world", bold())),
		p(text("second", bold()), text(" line")),
	), out.Document)

	// Partially bold selections become fully bold first.
	out = ToggleMark{Mark: document.MarkBold}.Apply(out.Document, span(0, 0, 11))
	assertDoc(t, document.New(
		p(text("hello world", bold())),
		p(text("second", bold()), text(" line")),
	), out.Document)
}

func TestToggleMarkWithCursorIsNoop(t *testing.T) {
	base := document.New(p(text("hello")))
	out := ToggleMark{Mark: document.MarkBold}.Apply(base, Cursor(0, 2))
	assert.False(t, out.Changed)
	assert.True(t, document.Equal(base, out.Document))
}

func TestToggleMarkSkipsAtoms(t *testing.T) {
	base := document.New(p(document.Image("https://x.test/a.png", "")))
	out := ToggleMark{Mark: document.MarkItalic}.Apply(base, span(0, 0, 1))
	assert.False(t, out.Changed)
}

func TestSetLink(t *testing.T) {
	base := document.New(p(text("read the docs")))

	out := SetLink{Href: "https://x.test"}.Apply(base, Cursor(0, 3))
	assert.False(t, out.Changed)
	assert.Equal(t, noticeLinkNeedsSelection, out.Notice)

	out = SetLink{Href: " https://x.test "}.Apply(base, span(0, 9, 13))
	require.True(t, out.Changed)
	assertDoc(t, document.New(p(text("read the "), text("docs", document.Link("https://x.test")))), out.Document)
	assert.True(t, IsMarkActive(out.Document, Cursor(0, 10), document.MarkLink))

	again := SetLink{Href: "https://x.test"}.Apply(out.Document, span(0, 9, 13))
	assert.False(t, again.Changed)

	removed := UnsetLink{}.Apply(out.Document, span(0, 0, 13))
	assertDoc(t, base, removed.Document)
}

func TestSetHeading(t *testing.T) {
	base := document.New(p(text("title")).WithAlign(document.AlignCenter), p(text("body")))

	out := SetHeading{Level: 1}.Apply(base, Cursor(0, 0))
	want := document.New(document.Heading(1, text("title")).WithAlign(document.AlignCenter), p(text("body")))
	assertDoc(t, want, out.Document)

	again := SetHeading{Level: 1}.Apply(out.Document, Cursor(0, 0))
	assert.False(t, again.Changed)
	assertDoc(t, want, again.Document)

	clamped := SetHeading{Level: 5}.Apply(base, Cursor(1, 0))
	assertDoc(t, document.New(p(text("title")).WithAlign(document.AlignCenter), document.Heading(2, text("body"))), clamped.Document)

	assertDoc(t, base, SetParagraph{}.Apply(out.Document, Cursor(0, 0)).Document)
}

func TestToggleHeading(t *testing.T) {
	base := document.New(p(text("title")))

	once := ToggleHeading{Level: 2}.Apply(base, Cursor(0, 1))
	assertDoc(t, document.New(document.Heading(2, text("title"))), once.Document)

	// A heading of another level is converted rather than reverted.
	other := ToggleHeading{Level: 1}.Apply(once.Document, Cursor(0, 1))
	assertDoc(t, document.New(document.Heading(1, text("title"))), other.Document)

	twice := ToggleHeading{Level: 2}.Apply(once.Document, Cursor(0, 1))
	assertDoc(t, base, twice.Document)
}

func TestSetTextAlign(t *testing.T) {
	base := document.New(p(text("a")), document.Heading(1, text("b")))
	sel := Range(Position{Block: 0, Offset: 0}, Position{Block: 1, Offset: 1})

	out := SetTextAlign{Align: document.AlignRight}.Apply(base, sel)
	assertDoc(t, document.New(
		p(text("a")).WithAlign(document.AlignRight),
		document.Heading(1, text("b")).WithAlign(document.AlignRight),
	), out.Document)
	assert.False(t, SetTextAlign{Align: document.AlignRight}.Apply(out.Document, sel).Changed)

	assertDoc(t, base, SetTextAlign{Align: document.AlignLeft}.Apply(out.Document, sel).Document)
	assert.False(t, SetTextAlign{Align: "justify"}.Apply(base, sel).Changed)
}

func TestToggleListWrapsAndLifts(t *testing.T) {
	base := document.New(p(text("a")), p(text("b")), p(text("c")))
	sel := Range(Position{Block: 0, Offset: 0}, Position{Block: 1, Offset: 1})

	wrapped := ToggleBulletList().Apply(base, sel)
	assertDoc(t, document.New(
		document.BulletList(document.ListItem(p(text("a"))), document.ListItem(p(text("b")))),
		p(text("c")),
	), wrapped.Document)
	assert.Equal(t, sel, wrapped.Selection)
	assert.True(t, IsBlockActive(wrapped.Document, sel, document.KindBulletList, document.Attrs{}))

	lifted := ToggleBulletList().Apply(wrapped.Document, wrapped.Selection)
	assertDoc(t, base, lifted.Document)

	retyped := ToggleOrderedList().Apply(wrapped.Document, Cursor(0, 0))
	assertDoc(t, document.New(
		document.OrderedList(document.ListItem(p(text("a"))), document.ListItem(p(text("b")))),
		p(text("c")),
	), retyped.Document)

	// A second toggle of the other type lifts instead of restoring the
	// bullet list.
	again := ToggleOrderedList().Apply(retyped.Document, sel)
	assertDoc(t, base, again.Document)
}

func TestToggleListLiftsMiddleItem(t *testing.T) {
	base := document.New(document.OrderedList(
		document.ListItem(p(text("a"))),
		document.ListItem(p(text("b"))),
		document.ListItem(p(text("c"))),
	))

	out := ToggleOrderedList().Apply(base, Cursor(1, 0))
	assertDoc(t, document.New(
		document.OrderedList(document.ListItem(p(text("a")))),
		p(text("b")),
		document.OrderedList(document.ListItem(p(text("c")))),
	), out.Document)
}

func TestToggleBlockquote(t *testing.T) {
	base := document.New(p(text("a")), p(text("b")))

	once := ToggleBlockquote{}.Apply(base, Cursor(0, 0))
	assertDoc(t, document.New(document.Blockquote(p(text("a"))), p(text("b"))), once.Document)
	assert.True(t, IsBlockActive(once.Document, Cursor(0, 0), document.KindBlockquote, document.Attrs{}))
	assertDoc(t, base, ToggleBlockquote{}.Apply(once.Document, Cursor(0, 0)).Document)

	inList := document.New(document.BulletList(document.ListItem(p(text("a")))))
	quoted := ToggleBlockquote{}.Apply(inList, Cursor(0, 0))
	assertDoc(t, document.New(document.BulletList(document.ListItem(document.Blockquote(p(text("a")))))), quoted.Document)
	assertDoc(t, inList, ToggleBlockquote{}.Apply(quoted.Document, Cursor(0, 0)).Document)
}

func TestInsertImage(t *testing.T) {
	base := document.New(p(text("hello")))

	out := InsertImage{Src: "https://cdn.x.test/a.png", Alt: "a"}.Apply(base, Cursor(0, 2))
	assertDoc(t, document.New(p(text("he"), document.Image("https://cdn.x.test/a.png", "a"), text("llo"))), out.Document)
	assert.Equal(t, Cursor(0, 3), out.Selection)

	empty := InsertImage{Src: "  "}.Apply(base, Cursor(0, 2))
	assert.False(t, empty.Changed)
	assert.Equal(t, noticeImageNeedsSource, empty.Notice)
}

func TestInsertRawEmbed(t *testing.T) {
	embed := markup.NormalizeEmbed(VideoEmbedHTML("https://www.youtube.com/embed/abc"))
	require.NotEmpty(t, embed)

	t.Run("replaces empty paragraph", func(t *testing.T) {
		out := InsertRawEmbed{HTML: VideoEmbedHTML("https://www.youtube.com/embed/abc")}.Apply(document.Default(), Cursor(0, 0))
		assertDoc(t, document.New(document.Embed(embed), p()), out.Document)
		assert.Equal(t, Cursor(0, 0), out.Selection)
	})

	t.Run("inserts after current block", func(t *testing.T) {
		base := document.New(p(text("x")), p(text("y")))
		out := InsertRawEmbed{HTML: VideoEmbedHTML("https://www.youtube.com/embed/abc")}.Apply(base, Cursor(0, 1))
		assertDoc(t, document.New(p(text("x")), document.Embed(embed), p(text("y"))), out.Document)
		assert.Equal(t, Cursor(1, 0), out.Selection)
	})

	t.Run("rejects unsafe markup", func(t *testing.T) {
		out := InsertRawEmbed{HTML: "<script>alert(1)</script>"}.Apply(document.Default(), Cursor(0, 0))
		assert.False(t, out.Changed)
		assert.Equal(t, noticeEmbedRejected, out.Notice)
	})
}

func TestInsertRawEmbedSizeLimit(t *testing.T) {
	base := "https://www.youtube.com/embed/"
	overhead := len(markup.NormalizeEmbed(VideoEmbedHTML(base))) - len(base)
	embedOfSize := func(size int) string {
		return VideoEmbedHTML(base + strings.Repeat("a", size-overhead-len(base)))
	}

	t.Run("at the limit round-trips", func(t *testing.T) {
		out := InsertRawEmbed{HTML: embedOfSize(markup.DefaultMaxEmbedBytes)}.Apply(document.Default(), Cursor(0, 0))
		require.True(t, out.Changed)

		codec, err := markup.New(markup.Config{})
		require.NoError(t, err)
		result, err := codec.Deserialize(markup.Serialize(out.Document))
		require.NoError(t, err)
		assert.Empty(t, result.Warnings)
		assert.True(t, document.Equal(out.Document, result.Document))
	})

	t.Run("over the limit is rejected", func(t *testing.T) {
		out := InsertRawEmbed{HTML: embedOfSize(markup.DefaultMaxEmbedBytes + 1)}.Apply(document.Default(), Cursor(0, 0))
		assert.False(t, out.Changed)
		assert.Equal(t, noticeEmbedTooLarge, out.Notice)
		assert.True(t, document.IsEmpty(out.Document))
	})
}

func TestInsertBlocks(t *testing.T) {
	base := document.New(p(text("x")), document.Embed("<iframe></iframe>"))
	fragment := []document.Tree{document.Heading(2, text("pasted")), p(text("tail"))}

	out := InsertBlocks{Blocks: fragment}.Apply(base, Cursor(0, 1))
	assertDoc(t, document.New(
		p(text("x")),
		document.Heading(2, text("pasted")),
		p(text("tail")),
		p(),
		document.Embed("<iframe></iframe>"),
	), out.Document)
	assert.Equal(t, Cursor(2, 4), out.Selection)
}

func TestInsertAsset(t *testing.T) {
	image := InsertAsset{URL: "https://cdn.x.test/a.png", MimeType: "image/png"}.Apply(document.Default(), Cursor(0, 0))
	assertDoc(t, document.New(p(document.Image("https://cdn.x.test/a.png", ""))), image.Document)

	video := InsertAsset{URL: "https://cdn.x.test/v.mp4", MimeType: "video/mp4"}.Apply(document.Default(), Cursor(0, 0))
	require.True(t, video.Changed)
	tree := video.Document.Tree()
	require.Equal(t, document.KindEmbed, tree.Children[0].Kind)
	assert.Contains(t, tree.Children[0].Attrs.HTML, "<video controls")
	assert.Contains(t, tree.Children[0].Attrs.HTML, `src="https://cdn.x.test/v.mp4"`)

	other := InsertAsset{URL: "https://cdn.x.test/f.pdf", MimeType: "application/pdf"}.Apply(document.Default(), Cursor(0, 0))
	assertDoc(t, document.New(p(text("https://cdn.x.test/f.pdf", document.Link("https://cdn.x.test/f.pdf")))), other.Document)
}

func TestCommandOutputRoundTrips(t *testing.T) {
	codec, err := markup.New(markup.Config{})
	require.NoError(t, err)

	doc := document.New(p(text("Title")), p(text("Some text here")), p(text("item one")), p(text("item two")), p(text("quote")))
	steps := []struct {
		cmd Command
		sel Selection
	}{
		{SetHeading{Level: 1}, Cursor(0, 0)},
		{ToggleMark{Mark: document.MarkBold}, span(1, 0, 4)},
		{ToggleMark{Mark: document.MarkItalic}, span(1, 2, 9)},
		{ToggleMark{Mark: document.MarkUnderline}, span(1, 3, 14)},
		{SetLink{Href: "https://x.test/?a=1&b=2"}, span(1, 5, 9)},
		{SetTextAlign{Align: document.AlignCenter}, Cursor(1, 0)},
		{ToggleOrderedList(), Range(Position{Block: 2, Offset: 0}, Position{Block: 3, Offset: 0})},
		{ToggleBlockquote{}, Cursor(4, 0)},
		{InsertImage{Src: "data:image/png;base64,iVBORw0KGgo=", Alt: "dot"}, Cursor(4, 5)},
		{InsertRawEmbed{HTML: VideoEmbedHTML("https://www.youtube.com/embed/abc")}, Cursor(4, 6)},
		{InsertAsset{URL: "https://cdn.x.test/v.mp4", MimeType: "video/mp4"}, Cursor(0, 5)},
		{ToggleBulletList(), Cursor(2, 0)},
	}

	d := NewDispatcher()
	for _, step := range steps {
		out := d.Dispatch(doc, step.sel, step.cmd)
		require.True(t, out.Changed, step.cmd.Name())
		doc = out.Document

		require.NoError(t, document.Validate(doc), step.cmd.Name())
		result, err := codec.Deserialize(markup.Serialize(doc))
		require.NoError(t, err)
		assert.Empty(t, result.Warnings)
		assertDoc(t, doc, result.Document)
	}
}

func TestIsMarkActiveAtCursor(t *testing.T) {
	doc := document.New(p(text("hello", bold()), text(" world")))

	assert.True(t, IsMarkActive(doc, Cursor(0, 0), document.MarkBold))
	assert.True(t, IsMarkActive(doc, Cursor(0, 3), document.MarkBold))
	assert.True(t, IsMarkActive(doc, Cursor(0, 5), document.MarkBold))
	assert.False(t, IsMarkActive(doc, Cursor(0, 6), document.MarkBold))
	assert.False(t, IsMarkActive(doc, span(0, 3, 8), document.MarkBold))
	assert.True(t, IsMarkActive(doc, span(0, 1, 4), document.MarkBold))
}

func TestCapabilities(t *testing.T) {
	doc := document.New(
		document.Heading(1, text("T", bold())).WithAlign(document.AlignCenter),
		document.BulletList(document.ListItem(p(text("item", document.Italic())))),
	)

	caps := Capabilities(doc, Cursor(0, 1))
	assert.True(t, caps.Equal(mapset.NewSet(CapBold, CapHeading1, CapAlignCenter)), caps.String())

	caps = Capabilities(doc, Cursor(1, 2))
	assert.True(t, caps.Equal(mapset.NewSet(CapItalic, CapParagraph, CapBulletList, CapAlignLeft)), caps.String())

	caps = Capabilities(doc, Range(Position{Block: 0, Offset: 0}, Position{Block: 1, Offset: 4}))
	assert.False(t, caps.Contains(CapHeading1))
	assert.False(t, caps.Contains(CapBulletList))
}

func TestSelectionIsClamped(t *testing.T) {
	doc := document.New(p(text("abc")))
	out := ToggleMark{Mark: document.MarkBold}.Apply(doc, Range(Position{Block: -3, Offset: 0}, Position{Block: 9, Offset: 99}))
	assertDoc(t, document.New(p(text("abc", bold()))), out.Document)
	assert.Equal(t, span(0, 0, 3), out.Selection)
}

func TestDispatcherReadOnly(t *testing.T) {
	doc := document.New(p(text("abc")))
	d := NewDispatcher(WithReadOnly(true))

	out := d.Dispatch(doc, span(0, 0, 3), ToggleMark{Mark: document.MarkBold})
	assert.False(t, out.Changed)
	assert.Equal(t, noticeReadOnly, out.Notice)
	assert.True(t, document.Equal(doc, out.Document))
}

func TestLookup(t *testing.T) {
	cmd, err := Lookup("set-heading", Params{"level": "2"})
	require.NoError(t, err)
	assert.Equal(t, SetHeading{Level: 2}, cmd)

	cmd, err = Lookup("insert-video", Params{"url": "https://www.youtube.com/embed/x"})
	require.NoError(t, err)
	assert.Equal(t, "insert-raw-embed", cmd.Name())

	_, err = Lookup("set-heading", Params{"level": "4"})
	assert.Error(t, err)
	_, err = Lookup("set-text-align", Params{"align": "justify"})
	assert.Error(t, err)
	_, err = Lookup("explode", nil)
	assert.EqualError(t, err, `unknown command "explode"`)

	assert.Contains(t, Names(), "toggle-bold")
	assert.Contains(t, Names(), "insert-asset-node")
}
