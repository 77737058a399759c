package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDocument(t *testing.T) {
	d := Default()
	require.NoError(t, Validate(d))
	assert.True(t, IsEmpty(d))
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, KindParagraph, d.Node(d.Node(d.Root()).Children[0]).Kind)

	assert.True(t, Equal(d, New()))
	assert.True(t, Equal(d, Build(Tree{Kind: KindDoc})))
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{name: "zero value", doc: Document{}, want: true},
		{name: "explicit empty paragraph", doc: New(Paragraph()), want: true},
		{name: "empty text run is dropped", doc: New(Paragraph(Text(""))), want: true},
		{name: "text", doc: New(Paragraph(Text("hello"))), want: false},
		{name: "whitespace only", doc: New(Paragraph(Text(" "))), want: false},
		{name: "whitespace with mark", doc: New(Paragraph(Text(" ", Bold()))), want: false},
		{name: "centered empty paragraph", doc: New(Paragraph().WithAlign(AlignCenter)), want: false},
		{name: "left aligned empty paragraph", doc: New(Paragraph().WithAlign(AlignLeft)), want: true},
		{name: "empty heading", doc: New(Heading(1)), want: false},
		{name: "two empty paragraphs", doc: New(Paragraph(), Paragraph()), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmpty(tt.doc))
		})
	}
}

func TestBuildNormalizesInlineContent(t *testing.T) {
	d := New(Paragraph(
		Text("a", Italic(), Bold()),
		Text("b", Bold(), Italic()),
		Text(""),
		Image("https://cdn.example.com/x.png", "x"),
		Text("c"),
	))

	tree := d.Tree()
	require.Len(t, tree.Children, 1)
	inline := tree.Children[0].Children
	require.Len(t, inline, 3)

	assert.Equal(t, "ab", inline[0].Text)
	assert.Equal(t, []Mark{Bold(), Italic()}, inline[0].Marks)
	assert.Equal(t, KindImage, inline[1].Kind)
	assert.Nil(t, inline[2].Marks)
	assert.Equal(t, 4, InlineLen(inline))
}

func TestBuildFillsEmptyContainers(t *testing.T) {
	d := New(Blockquote(), BulletList(), ListItem())
	require.NoError(t, Validate(New(Blockquote(), BulletList(ListItem()))))

	tree := d.Tree()
	require.Len(t, tree.Children, 2)
	assert.Equal(t, Blockquote(Paragraph()), tree.Children[0])
	assert.Equal(t, KindListItem, tree.Children[1].Kind)
}

func TestBuildWrapsNonRootTree(t *testing.T) {
	d := Build(Paragraph(Text("x")))
	assert.True(t, Equal(d, New(Paragraph(Text("x")))))
}

func TestDocumentsAreImmutableValues(t *testing.T) {
	d := New(Paragraph(Text("hello", Bold())))
	tree := d.Tree()
	tree.Children[0].Children[0].Text = "changed"
	tree.Children[0].Children[0].Marks[0] = Italic()

	assert.Equal(t, "hello", d.Tree().PlainText())
	assert.True(t, Equal(d, New(Paragraph(Text("hello", Bold())))))
}

func TestEqual(t *testing.T) {
	base := New(
		Heading(1, Text("Title")),
		BulletList(ListItem(Paragraph(Text("one"))), ListItem(Paragraph(Text("two", Link("https://example.com"))))),
	)

	assert.True(t, Equal(base, New(
		Heading(1, Text("Title")),
		BulletList(ListItem(Paragraph(Text("one"))), ListItem(Paragraph(Text("two", Link("https://example.com"))))),
	)))
	assert.False(t, Equal(base, New(
		Heading(2, Text("Title")),
		BulletList(ListItem(Paragraph(Text("one"))), ListItem(Paragraph(Text("two", Link("https://example.com"))))),
	)))
	assert.False(t, Equal(base, New(
		Heading(1, Text("Title")),
		BulletList(ListItem(Paragraph(Text("one"))), ListItem(Paragraph(Text("two", Link("https://example.org"))))),
	)))
}

func TestTextblocksInDocumentOrder(t *testing.T) {
	d := New(
		Paragraph(Text("first")),
		BulletList(ListItem(Paragraph(Text("second")), Blockquote(Heading(2, Text("third"))))),
		Embed("<iframe></iframe>"),
		Paragraph(Text("fourth")),
	)

	var texts []string
	for _, id := range d.Textblocks() {
		texts = append(texts, treeAt(d.nodes, id).PlainText())
	}
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, texts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr string
	}{
		{
			name: "valid mixed content",
			doc: New(
				Heading(2, Text("t")).WithAlign(AlignRight),
				Paragraph(Text("a", Link("https://x"), Bold()), HardBreak(), Image("https://x/y.png", "")),
				OrderedList(ListItem(Paragraph())),
				Embed("<video src=\"https://x/v.mp4\"></video>"),
			),
		},
		{
			name:    "heading level out of range",
			doc:     New(Heading(3, Text("t"))),
			wantErr: "heading level 3 out of range",
		},
		{
			name:    "image in list item",
			doc:     New(BulletList(ListItem(Image("https://x/y.png", "")))),
			wantErr: `illegal child kind "image"`,
		},
		{
			name:    "paragraph in paragraph",
			doc:     New(Paragraph(Paragraph())),
			wantErr: `illegal child kind "paragraph"`,
		},
		{
			name:    "image without src",
			doc:     New(Paragraph(Image("", "alt"))),
			wantErr: "image without src",
		},
		{
			name:    "link without href",
			doc:     New(Paragraph(Text("a", Link("")))),
			wantErr: "link without href",
		},
		{
			name:    "aligned list",
			doc:     New(BulletList(ListItem(Paragraph())).WithAlign(AlignCenter)),
			wantErr: "alignment is not allowed",
		},
		{
			name:    "list holding paragraph",
			doc:     New(BulletList(Paragraph())),
			wantErr: `illegal child kind "paragraph"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMarkHelpers(t *testing.T) {
	marks := SortMarks([]Mark{Underline(), Link("a"), Bold(), Link("b")})
	assert.Equal(t, []Mark{Link("b"), Bold(), Underline()}, marks)

	marks = AddMark(marks, Italic())
	assert.Equal(t, []Mark{Link("b"), Bold(), Italic(), Underline()}, marks)

	marks = RemoveMark(marks, MarkBold)
	assert.Equal(t, []Mark{Link("b"), Italic(), Underline()}, marks)
	assert.True(t, HasMark(marks, MarkLink))
	assert.False(t, HasMark(marks, MarkBold))
	assert.Nil(t, RemoveMark([]Mark{Bold()}, MarkBold))
}
