package command

import (
	"strings"

	"github.com/rgonek/blogpen/document"
)

const noticeLinkNeedsSelection = "Select some text before adding a link."

// ToggleMark adds a mark to the selected text, or removes it when every
// selected text run already carries it. A cursor selection is left as is.
type ToggleMark struct {
	Mark document.MarkType
}

func (c ToggleMark) Name() string { return "toggle-" + string(c.Mark) }

func (c ToggleMark) Apply(doc document.Document, sel Selection) Outcome {
	d := newDraft(doc)
	sel = d.clamp(sel)
	if sel.Empty() || c.Mark == document.MarkLink {
		return unchanged(doc, sel)
	}

	active, hasText := d.rangeHasMark(sel, c.Mark)
	if !hasText {
		return unchanged(doc, sel)
	}
	d.mapSelectedText(sel, func(marks []document.Mark) []document.Mark {
		if active {
			return document.RemoveMark(marks, c.Mark)
		}
		return document.AddMark(marks, document.Mark{Type: c.Mark})
	})
	return changed(d.build(), sel)
}

// SetLink links the selected text to Href. An empty Href removes links from
// the selection. A cursor selection is rejected with a notice.
type SetLink struct {
	Href string
}

func (c SetLink) Name() string { return "set-link" }

func (c SetLink) Apply(doc document.Document, sel Selection) Outcome {
	d := newDraft(doc)
	sel = d.clamp(sel)
	if sel.Empty() {
		out := unchanged(doc, sel)
		out.Notice = noticeLinkNeedsSelection
		return out
	}

	href := strings.TrimSpace(c.Href)
	d.mapSelectedText(sel, func(marks []document.Mark) []document.Mark {
		if href == "" {
			return document.RemoveMark(marks, document.MarkLink)
		}
		return document.AddMark(marks, document.Link(href))
	})
	return changedIfDifferent(doc, d.build(), sel)
}

// UnsetLink removes links from the selected text.
type UnsetLink struct{}

func (UnsetLink) Name() string { return "unset-link" }

func (UnsetLink) Apply(doc document.Document, sel Selection) Outcome {
	return SetLink{}.Apply(doc, sel)
}

// mapSelectedText rewrites the marks of every text run inside sel.
func (d *draft) mapSelectedText(sel Selection, fn func([]document.Mark) []document.Mark) {
	for _, r := range d.ranges(sel) {
		if r.start == r.end {
			continue
		}
		block := d.textblock(r.block)
		before, middle, after := splitInline(block.Children, r.start, r.end)
		for i := range middle {
			if middle[i].Kind == document.KindText {
				middle[i].Marks = fn(middle[i].Marks)
			}
		}
		block.Children = joinInline(before, middle, after)
	}
}

// rangeHasMark reports whether all text runs inside sel carry the mark, and
// whether the selection covers any text at all.
func (d *draft) rangeHasMark(sel Selection, mark document.MarkType) (all, hasText bool) {
	all = true
	for _, r := range d.ranges(sel) {
		if r.start == r.end {
			continue
		}
		_, middle, _ := splitInline(d.textblock(r.block).Children, r.start, r.end)
		for _, child := range middle {
			if child.Kind != document.KindText {
				continue
			}
			hasText = true
			if !document.HasMark(child.Marks, mark) {
				all = false
			}
		}
	}
	return all && hasText, hasText
}

// marksAt returns the marks that apply at a cursor: those of the text before
// it, or of the text after it at the start of a block.
func (d *draft) marksAt(p Position) []document.Mark {
	if len(d.blocks) == 0 {
		return nil
	}
	inline := d.textblock(p.Block).Children
	if p.Offset > 0 {
		_, middle, _ := splitInline(inline, p.Offset-1, p.Offset)
		if len(middle) == 1 && middle[0].Kind == document.KindText {
			return middle[0].Marks
		}
		return nil
	}
	_, middle, _ := splitInline(inline, 0, 1)
	if len(middle) == 1 && middle[0].Kind == document.KindText {
		return middle[0].Marks
	}
	return nil
}
