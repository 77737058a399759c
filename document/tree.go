package document

import (
	"strings"
	"unicode/utf8"
)

// Tree is the nested value form of a node. It is used to construct
// documents and as the scratch copy commands edit before rebuilding.
type Tree struct {
	Kind     Kind   `json:"type"`
	Text     string `json:"text,omitempty"`
	Marks    []Mark `json:"marks,omitempty"`
	Attrs    Attrs  `json:"attrs"`
	Children []Tree `json:"content,omitempty"`
}

// Paragraph returns a paragraph holding inline children.
func Paragraph(inline ...Tree) Tree {
	return Tree{Kind: KindParagraph, Children: inline}
}

// Heading returns a heading of the given level holding inline children.
func Heading(level int, inline ...Tree) Tree {
	return Tree{Kind: KindHeading, Attrs: Attrs{Level: level}, Children: inline}
}

// BulletList returns an unordered list of items.
func BulletList(items ...Tree) Tree {
	return Tree{Kind: KindBulletList, Children: items}
}

// OrderedList returns an ordered list of items.
func OrderedList(items ...Tree) Tree {
	return Tree{Kind: KindOrderedList, Children: items}
}

// ListItem returns a list item holding blocks.
func ListItem(blocks ...Tree) Tree {
	return Tree{Kind: KindListItem, Children: blocks}
}

// Blockquote returns a quote holding blocks.
func Blockquote(blocks ...Tree) Tree {
	return Tree{Kind: KindBlockquote, Children: blocks}
}

// Image returns an inline image.
func Image(src, alt string) Tree {
	return Tree{Kind: KindImage, Attrs: Attrs{Src: src, Alt: alt}}
}

// Embed returns a raw embed block.
func Embed(html string) Tree {
	return Tree{Kind: KindEmbed, Attrs: Attrs{HTML: html}}
}

// Text returns a text run carrying marks.
func Text(s string, marks ...Mark) Tree {
	return Tree{Kind: KindText, Text: s, Marks: marks}
}

// HardBreak returns an inline line break.
func HardBreak() Tree {
	return Tree{Kind: KindHardBreak}
}

// WithAlign returns t with its alignment set.
func (t Tree) WithAlign(a Align) Tree {
	t.Attrs.Align = a
	return t
}

// InlineLen returns the length of inline content: runes for text runs and
// one for every atom.
func InlineLen(inline []Tree) int {
	n := 0
	for _, child := range inline {
		n += child.inlineSize()
	}
	return n
}

func (t Tree) inlineSize() int {
	if t.Kind == KindText {
		return utf8.RuneCountInString(t.Text)
	}
	return 1
}

// PlainText concatenates the text runs below t.
func (t Tree) PlainText() string {
	var sb strings.Builder
	t.writeText(&sb)
	return sb.String()
}

func (t Tree) writeText(sb *strings.Builder) {
	if t.Kind == KindText {
		sb.WriteString(t.Text)
		return
	}
	for _, child := range t.Children {
		child.writeText(sb)
	}
}

func (t Tree) size() int {
	n := 1
	for _, child := range t.Children {
		n += child.size()
	}
	return n
}

func normalize(t Tree) Tree {
	out := Tree{
		Kind:  t.Kind,
		Text:  t.Text,
		Marks: SortMarks(t.Marks),
		Attrs: t.Attrs,
	}
	out.Attrs.Align = out.Attrs.Align.normalize()

	if t.Kind.IsTextblock() {
		out.Children = normalizeInline(t.Children)
		return out
	}

	for _, child := range t.Children {
		child = normalize(child)
		if child.Kind.IsList() && len(child.Children) == 0 {
			continue
		}
		out.Children = append(out.Children, child)
	}

	switch t.Kind {
	case KindListItem, KindBlockquote:
		if len(out.Children) == 0 {
			out.Children = []Tree{Paragraph()}
		}
	}
	return out
}

// normalizeInline drops empty text runs and merges neighbours with equal marks.
func normalizeInline(inline []Tree) []Tree {
	var out []Tree
	for _, child := range inline {
		child = normalize(child)
		if child.Kind == KindText {
			if child.Text == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].Kind == KindText && MarksEqual(out[n-1].Marks, child.Marks) {
				out[n-1].Text += child.Text
				continue
			}
		}
		out = append(out, child)
	}
	return out
}
