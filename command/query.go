package command

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rgonek/blogpen/document"
)

// Capability is a toolbar state that can be active at a selection.
type Capability string

const (
	CapBold        Capability = "bold"
	CapItalic      Capability = "italic"
	CapUnderline   Capability = "underline"
	CapLink        Capability = "link"
	CapParagraph   Capability = "paragraph"
	CapHeading1    Capability = "heading1"
	CapHeading2    Capability = "heading2"
	CapBulletList  Capability = "bulletList"
	CapOrderedList Capability = "orderedList"
	CapBlockquote  Capability = "blockquote"
	CapAlignLeft   Capability = "alignLeft"
	CapAlignCenter Capability = "alignCenter"
	CapAlignRight  Capability = "alignRight"
)

// IsMarkActive reports whether mark applies at the selection. For a cursor
// this is the mark set of the adjacent text; for a range every selected text
// run must carry the mark.
func IsMarkActive(doc document.Document, sel Selection, mark document.MarkType) bool {
	d := newDraft(doc)
	sel = d.clamp(sel)
	if sel.Empty() {
		return document.HasMark(d.marksAt(sel.Head), mark)
	}
	active, _ := d.rangeHasMark(sel, mark)
	return active
}

// IsBlockActive reports whether every selected textblock is of kind, or sits
// inside a node of kind for containers. Non-zero attrs must match too: the
// heading level, and the alignment of textblocks.
func IsBlockActive(doc document.Document, sel Selection, kind document.Kind, attrs document.Attrs) bool {
	d := newDraft(doc)
	sel = d.clamp(sel)
	blocks := d.selectedBlocks(sel)
	if len(blocks) == 0 {
		return false
	}

	for _, b := range blocks {
		t := d.textblock(b)
		switch {
		case kind.IsTextblock():
			if t.Kind != kind {
				return false
			}
			if attrs.Level != 0 && t.Attrs.Level != attrs.Level {
				return false
			}
		case kind.IsList():
			list := d.nearestAncestor(d.blocks[b], document.Kind.IsList)
			if list == nil || d.at(list).Kind != kind {
				return false
			}
		case kind == document.KindBlockquote:
			if d.nearestAncestor(d.blocks[b], isBlockquote) == nil {
				return false
			}
		default:
			return false
		}
		if attrs.Align != "" && t.Attrs.Align.Effective() != attrs.Align.Effective() {
			return false
		}
	}
	return true
}

// Capabilities returns the toolbar states active at the selection.
func Capabilities(doc document.Document, sel Selection) mapset.Set[Capability] {
	caps := mapset.NewSet[Capability]()

	marks := map[document.MarkType]Capability{
		document.MarkBold:      CapBold,
		document.MarkItalic:    CapItalic,
		document.MarkUnderline: CapUnderline,
		document.MarkLink:      CapLink,
	}
	for mark, c := range marks {
		if IsMarkActive(doc, sel, mark) {
			caps.Add(c)
		}
	}

	blocks := []struct {
		kind  document.Kind
		attrs document.Attrs
		cap   Capability
	}{
		{document.KindParagraph, document.Attrs{}, CapParagraph},
		{document.KindHeading, document.Attrs{Level: 1}, CapHeading1},
		{document.KindHeading, document.Attrs{Level: 2}, CapHeading2},
		{document.KindBulletList, document.Attrs{}, CapBulletList},
		{document.KindOrderedList, document.Attrs{}, CapOrderedList},
		{document.KindBlockquote, document.Attrs{}, CapBlockquote},
	}
	for _, b := range blocks {
		if IsBlockActive(doc, sel, b.kind, b.attrs) {
			caps.Add(b.cap)
		}
	}

	aligns := map[document.Align]Capability{
		document.AlignLeft:   CapAlignLeft,
		document.AlignCenter: CapAlignCenter,
		document.AlignRight:  CapAlignRight,
	}
	for align, c := range aligns {
		if alignActive(doc, sel, align) {
			caps.Add(c)
		}
	}
	return caps
}

func alignActive(doc document.Document, sel Selection, align document.Align) bool {
	d := newDraft(doc)
	sel = d.clamp(sel)
	blocks := d.selectedBlocks(sel)
	if len(blocks) == 0 {
		return false
	}
	for _, b := range blocks {
		if d.textblock(b).Attrs.Align.Effective() != align {
			return false
		}
	}
	return true
}
