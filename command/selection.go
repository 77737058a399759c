package command

// Position addresses a point inside a textblock. Block is the index of the
// paragraph or heading in document order; Offset counts runes of text and
// one unit for every inline atom.
type Position struct {
	Block  int `json:"block"`
	Offset int `json:"offset"`
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Block != q.Block {
		return p.Block < q.Block
	}
	return p.Offset < q.Offset
}

// Selection is a range between an anchor and a head. When both are equal the
// selection is a cursor.
type Selection struct {
	Anchor Position `json:"anchor"`
	Head   Position `json:"head"`
}

// Cursor returns an empty selection at block and offset.
func Cursor(block, offset int) Selection {
	p := Position{Block: block, Offset: offset}
	return Selection{Anchor: p, Head: p}
}

// Range returns a selection from anchor to head.
func Range(anchor, head Position) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// From returns the earlier end of the selection.
func (s Selection) From() Position {
	if s.Head.Before(s.Anchor) {
		return s.Head
	}
	return s.Anchor
}

// To returns the later end of the selection.
func (s Selection) To() Position {
	if s.Head.Before(s.Anchor) {
		return s.Anchor
	}
	return s.Head
}

// Empty reports whether the selection is a cursor.
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}
