package command

import (
	"github.com/rgonek/blogpen/document"
)

// draft is a mutable copy of a document. Commands edit the copy and build a
// fresh document from it, so the input document is never touched.
type draft struct {
	root   document.Tree
	blocks [][]int
}

func newDraft(doc document.Document) *draft {
	d := &draft{root: doc.Tree()}
	d.reindex()
	return d
}

func (d *draft) reindex() {
	d.blocks = textblockPaths(d.root, nil)
}

func textblockPaths(t document.Tree, prefix []int) [][]int {
	var out [][]int
	for i, child := range t.Children {
		path := append(append([]int(nil), prefix...), i)
		if child.Kind.IsTextblock() {
			out = append(out, path)
			continue
		}
		out = append(out, textblockPaths(child, path)...)
	}
	return out
}

func (d *draft) build() document.Document {
	return document.Build(d.root)
}

// at returns the node at path inside the draft.
func (d *draft) at(path []int) *document.Tree {
	t := &d.root
	for _, i := range path {
		t = &t.Children[i]
	}
	return t
}

func (d *draft) textblock(i int) *document.Tree {
	return d.at(d.blocks[i])
}

func (d *draft) blockLen(i int) int {
	return document.InlineLen(d.textblock(i).Children)
}

// clamp moves both ends of sel inside the document.
func (d *draft) clamp(sel Selection) Selection {
	return Selection{Anchor: d.clampPos(sel.Anchor), Head: d.clampPos(sel.Head)}
}

func (d *draft) clampPos(p Position) Position {
	if len(d.blocks) == 0 {
		return Position{}
	}
	if p.Block < 0 {
		return Position{}
	}
	if p.Block >= len(d.blocks) {
		last := len(d.blocks) - 1
		return Position{Block: last, Offset: d.blockLen(last)}
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if n := d.blockLen(p.Block); p.Offset > n {
		p.Offset = n
	}
	return p
}

// ensureTextblock appends an empty paragraph when the document has no
// textblock to place a cursor in.
func (d *draft) ensureTextblock() {
	if len(d.blocks) > 0 {
		return
	}
	d.root.Children = append(d.root.Children, document.Paragraph())
	d.reindex()
}

type blockRange struct {
	block      int
	start, end int
}

// ranges splits a clamped selection into per-textblock offset ranges.
func (d *draft) ranges(sel Selection) []blockRange {
	if len(d.blocks) == 0 {
		return nil
	}
	from, to := sel.From(), sel.To()
	var out []blockRange
	for i := from.Block; i <= to.Block; i++ {
		r := blockRange{block: i, start: 0, end: d.blockLen(i)}
		if i == from.Block {
			r.start = from.Offset
		}
		if i == to.Block {
			r.end = to.Offset
		}
		out = append(out, r)
	}
	return out
}

// selectedBlocks returns the textblock indexes covered by sel.
func (d *draft) selectedBlocks(sel Selection) []int {
	if len(d.blocks) == 0 {
		return nil
	}
	var out []int
	for i := sel.From().Block; i <= sel.To().Block; i++ {
		out = append(out, i)
	}
	return out
}

// splitInline cuts inline content at start and end and returns the three
// parts. Text runs are split by rune; atoms fall wholly into one part.
func splitInline(inline []document.Tree, start, end int) (before, middle, after []document.Tree) {
	pos := 0
	for _, child := range inline {
		size := document.InlineLen([]document.Tree{child})
		childStart, childEnd := pos, pos+size
		pos = childEnd

		switch {
		case childEnd <= start && size > 0:
			before = append(before, child)
		case childStart >= end:
			after = append(after, child)
		case child.Kind != document.KindText:
			middle = append(middle, child)
		default:
			runes := []rune(child.Text)
			lo := clampInt(start-childStart, 0, size)
			hi := clampInt(end-childStart, 0, size)
			if lo > 0 {
				before = append(before, withText(child, string(runes[:lo])))
			}
			if hi > lo {
				middle = append(middle, withText(child, string(runes[lo:hi])))
			}
			if hi < size {
				after = append(after, withText(child, string(runes[hi:])))
			}
		}
	}
	return before, middle, after
}

func withText(t document.Tree, text string) document.Tree {
	t.Text = text
	return t
}

func joinInline(parts ...[]document.Tree) []document.Tree {
	var out []document.Tree
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// insertInline places node at offset inside inline content.
func insertInline(inline []document.Tree, offset int, node document.Tree) []document.Tree {
	before, _, after := splitInline(inline, offset, offset)
	return joinInline(before, []document.Tree{node}, after)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nearestAncestor returns the path of the deepest ancestor of path whose kind
// satisfies match, or nil.
func (d *draft) nearestAncestor(path []int, match func(document.Kind) bool) []int {
	for k := len(path) - 1; k >= 0; k-- {
		if match(d.at(path[:k]).Kind) {
			return path[:k:k]
		}
	}
	return nil
}

// siblingRange finds the container holding the selected textblocks as
// children and returns its path with the first and last child index.
func (d *draft) siblingRange(blocks []int) (container []int, first, last int) {
	a, b := d.blocks[blocks[0]], d.blocks[blocks[len(blocks)-1]]
	n := 0
	for n < len(a)-1 && n < len(b)-1 && a[n] == b[n] {
		n++
	}
	container = a[:n:n]
	for len(container) > 0 && !isContainer(d.at(container).Kind) {
		container = container[: len(container)-1 : len(container)-1]
	}
	depth := len(container)
	return container, a[depth], b[depth]
}

func isContainer(k document.Kind) bool {
	switch k {
	case document.KindDoc, document.KindBlockquote, document.KindListItem:
		return true
	}
	return false
}

func samePath(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
