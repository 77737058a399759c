package document

import "sort"

// MarkType identifies an inline mark.
type MarkType string

const (
	MarkLink      MarkType = "link"
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
)

// Mark is a non-structural tag applied to a text run.
type Mark struct {
	Type MarkType `json:"type"`
	Href string   `json:"href,omitempty"`
}

// Bold returns the bold mark.
func Bold() Mark { return Mark{Type: MarkBold} }

// Italic returns the italic mark.
func Italic() Mark { return Mark{Type: MarkItalic} }

// Underline returns the underline mark.
func Underline() Mark { return Mark{Type: MarkUnderline} }

// Link returns a link mark pointing at href.
func Link(href string) Mark { return Mark{Type: MarkLink, Href: href} }

// markRank orders marks from outermost to innermost.
func markRank(t MarkType) int {
	switch t {
	case MarkLink:
		return 0
	case MarkBold:
		return 1
	case MarkItalic:
		return 2
	case MarkUnderline:
		return 3
	}
	return 4
}

// SortMarks returns a canonical copy of marks: one mark per type, ordered
// link, bold, italic, underline. When a type repeats the last one wins.
func SortMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	out := make([]Mark, 0, len(marks))
	for _, m := range marks {
		replaced := false
		for i := range out {
			if out[i].Type == m.Type {
				out[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return markRank(out[i].Type) < markRank(out[j].Type)
	})
	return out
}

// MarksEqual compares two canonical mark sets.
func MarksEqual(a, b []Mark) bool {
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

// FindMark returns the mark of type t, if present.
func FindMark(marks []Mark, t MarkType) (Mark, bool) {
	for _, m := range marks {
		if m.Type == t {
			return m, true
		}
	}
	return Mark{}, false
}

// HasMark reports whether marks contains a mark of type t.
func HasMark(marks []Mark, t MarkType) bool {
	_, ok := FindMark(marks, t)
	return ok
}

// AddMark returns a canonical copy of marks with m set.
func AddMark(marks []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return SortMarks(append(out, m))
}

// RemoveMark returns a canonical copy of marks without type t.
func RemoveMark(marks []Mark, t MarkType) []Mark {
	var out []Mark
	for _, m := range marks {
		if m.Type != t {
			out = append(out, m)
		}
	}
	return SortMarks(out)
}

func cloneMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	out := make([]Mark, len(marks))
	copy(out, marks)
	return out
}
