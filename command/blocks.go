package command

import (
	"github.com/rgonek/blogpen/document"
)

// SetHeading turns the selected textblocks into headings of Level. Levels
// outside the supported range are clamped.
type SetHeading struct {
	Level int
}

func (c SetHeading) Name() string { return "set-heading" }

func (c SetHeading) Apply(doc document.Document, sel Selection) Outcome {
	level := clampInt(c.Level, 1, 2)
	return applyTextblocks(doc, sel, func(t *document.Tree) {
		t.Kind = document.KindHeading
		t.Attrs.Level = level
	})
}

// SetParagraph turns the selected textblocks into paragraphs.
type SetParagraph struct{}

func (SetParagraph) Name() string { return "set-paragraph" }

func (SetParagraph) Apply(doc document.Document, sel Selection) Outcome {
	return applyTextblocks(doc, sel, func(t *document.Tree) {
		t.Kind = document.KindParagraph
		t.Attrs.Level = 0
	})
}

// ToggleHeading sets a heading of Level, or reverts to paragraphs when every
// selected textblock already is one.
type ToggleHeading struct {
	Level int
}

func (c ToggleHeading) Name() string { return "toggle-heading" }

func (c ToggleHeading) Apply(doc document.Document, sel Selection) Outcome {
	level := clampInt(c.Level, 1, 2)
	if IsBlockActive(doc, sel, document.KindHeading, document.Attrs{Level: level}) {
		return SetParagraph{}.Apply(doc, sel)
	}
	return SetHeading{Level: level}.Apply(doc, sel)
}

// SetTextAlign aligns the selected textblocks.
type SetTextAlign struct {
	Align document.Align
}

func (c SetTextAlign) Name() string { return "set-text-align" }

func (c SetTextAlign) Apply(doc document.Document, sel Selection) Outcome {
	switch c.Align {
	case "", document.AlignLeft, document.AlignCenter, document.AlignRight:
	default:
		return unchanged(doc, sel)
	}
	return applyTextblocks(doc, sel, func(t *document.Tree) {
		t.Attrs.Align = c.Align
	})
}

func applyTextblocks(doc document.Document, sel Selection, fn func(*document.Tree)) Outcome {
	d := newDraft(doc)
	sel = d.clamp(sel)
	for _, i := range d.selectedBlocks(sel) {
		fn(d.textblock(i))
	}
	return changedIfDifferent(doc, d.build(), sel)
}

// ToggleList wraps the selected blocks in a list of Kind. Inside a list of
// the same kind the selected items are lifted out of it; inside a list of the
// other kind the list is retyped.
type ToggleList struct {
	Kind document.Kind
}

// ToggleBulletList returns the toggle for unordered lists.
func ToggleBulletList() ToggleList { return ToggleList{Kind: document.KindBulletList} }

// ToggleOrderedList returns the toggle for ordered lists.
func ToggleOrderedList() ToggleList { return ToggleList{Kind: document.KindOrderedList} }

func (c ToggleList) Name() string {
	if c.Kind == document.KindOrderedList {
		return "toggle-ordered-list"
	}
	return "toggle-bullet-list"
}

func (c ToggleList) Apply(doc document.Document, sel Selection) Outcome {
	d := newDraft(doc)
	sel = d.clamp(sel)
	blocks := d.selectedBlocks(sel)
	if len(blocks) == 0 || !c.Kind.IsList() {
		return unchanged(doc, sel)
	}

	if listPath := d.commonAncestor(blocks, document.Kind.IsList); listPath != nil {
		list := d.at(listPath)
		if list.Kind == c.Kind {
			d.lift(listPath, blocks, func(items []document.Tree) []document.Tree {
				var out []document.Tree
				for _, item := range items {
					out = append(out, item.Children...)
				}
				return out
			})
		} else {
			list.Kind = c.Kind
		}
		return changedIfDifferent(doc, d.build(), sel)
	}

	d.wrap(blocks, func(selected []document.Tree) document.Tree {
		items := make([]document.Tree, 0, len(selected))
		for _, block := range selected {
			items = append(items, document.ListItem(block))
		}
		return document.Tree{Kind: c.Kind, Children: items}
	})
	return changedIfDifferent(doc, d.build(), sel)
}

// ToggleBlockquote wraps the selected blocks in a quote, or lifts them out of
// the quote they share.
type ToggleBlockquote struct{}

func (ToggleBlockquote) Name() string { return "toggle-blockquote" }

func (ToggleBlockquote) Apply(doc document.Document, sel Selection) Outcome {
	d := newDraft(doc)
	sel = d.clamp(sel)
	blocks := d.selectedBlocks(sel)
	if len(blocks) == 0 {
		return unchanged(doc, sel)
	}

	if quotePath := d.commonAncestor(blocks, isBlockquote); quotePath != nil {
		d.lift(quotePath, blocks, func(children []document.Tree) []document.Tree {
			return children
		})
		return changedIfDifferent(doc, d.build(), sel)
	}

	d.wrap(blocks, func(selected []document.Tree) document.Tree {
		return document.Blockquote(selected...)
	})
	return changedIfDifferent(doc, d.build(), sel)
}

func isBlockquote(k document.Kind) bool {
	return k == document.KindBlockquote
}

// commonAncestor returns the nearest matching ancestor shared by all blocks,
// or nil when some block has none or they differ.
func (d *draft) commonAncestor(blocks []int, match func(document.Kind) bool) []int {
	var shared []int
	for i, b := range blocks {
		p := d.nearestAncestor(d.blocks[b], match)
		if p == nil {
			return nil
		}
		if i == 0 {
			shared = p
			continue
		}
		if !samePath(shared, p) {
			return nil
		}
	}
	return shared
}

// lift replaces the children of the node at path that hold the selected
// blocks with unwrap(children). Unselected children before and after stay
// wrapped in copies of the node.
func (d *draft) lift(path []int, blocks []int, unwrap func([]document.Tree) []document.Tree) {
	depth := len(path)
	first := d.blocks[blocks[0]][depth]
	last := d.blocks[blocks[len(blocks)-1]][depth]

	node := *d.at(path)
	var replacement []document.Tree
	if first > 0 {
		replacement = append(replacement, document.Tree{Kind: node.Kind, Children: node.Children[:first]})
	}
	replacement = append(replacement, unwrap(node.Children[first:last+1])...)
	if last+1 < len(node.Children) {
		replacement = append(replacement, document.Tree{Kind: node.Kind, Children: node.Children[last+1:]})
	}

	parent := d.at(path[:depth-1])
	idx := path[depth-1]
	parent.Children = splice(parent.Children, idx, idx+1, replacement)
	d.reindex()
}

// wrap replaces the sibling blocks holding the selection with wrapper(blocks).
func (d *draft) wrap(blocks []int, wrapper func([]document.Tree) document.Tree) {
	container, first, last := d.siblingRange(blocks)
	parent := d.at(container)
	selected := append([]document.Tree(nil), parent.Children[first:last+1]...)
	parent.Children = splice(parent.Children, first, last+1, []document.Tree{wrapper(selected)})
	d.reindex()
}

func splice(children []document.Tree, from, to int, replacement []document.Tree) []document.Tree {
	out := make([]document.Tree, 0, len(children)-(to-from)+len(replacement))
	out = append(out, children[:from]...)
	out = append(out, replacement...)
	return append(out, children[to:]...)
}
