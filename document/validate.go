package document

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate when a document breaks a structural rule.
var ErrInvalid = errors.New("invalid document")

// Validate checks the structural rules every document must satisfy: a doc
// root, legal child kinds and attributes per kind and canonical text runs.
func Validate(d Document) error {
	nodes := d.arena()
	if nodes[0].Kind != KindDoc {
		return fmt.Errorf("%w: root is %q, want %q", ErrInvalid, nodes[0].Kind, KindDoc)
	}
	if len(nodes[0].Children) == 0 {
		return fmt.Errorf("%w: root has no blocks", ErrInvalid)
	}

	seen := make([]bool, len(nodes))
	seen[0] = true
	for i, n := range nodes {
		if i > 0 && n.Kind == KindDoc {
			return invalidNode(NodeID(i), n, "nested doc node")
		}
		for _, child := range n.Children {
			if int(child) <= 0 || int(child) >= len(nodes) {
				return invalidNode(NodeID(i), n, fmt.Sprintf("child id %d out of range", child))
			}
			if seen[child] {
				return invalidNode(NodeID(i), n, fmt.Sprintf("child %d has more than one parent", child))
			}
			seen[child] = true
			if !legalChild(n.Kind, nodes[child].Kind) {
				return invalidNode(NodeID(i), n, fmt.Sprintf("illegal child kind %q", nodes[child].Kind))
			}
		}
		if err := validateAttrs(NodeID(i), n); err != nil {
			return err
		}
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("%w: node %d is unreachable", ErrInvalid, i)
		}
	}
	return nil
}

func legalChild(parent, child Kind) bool {
	switch parent {
	case KindDoc, KindBlockquote, KindListItem:
		return child.IsBlock()
	case KindParagraph, KindHeading:
		return child.IsInline()
	case KindBulletList, KindOrderedList:
		return child == KindListItem
	}
	return false
}

func validateAttrs(id NodeID, n Node) error {
	a := n.Attrs
	if n.Kind != KindText && (n.Text != "" || len(n.Marks) > 0) {
		return invalidNode(id, n, "only text runs carry text and marks")
	}
	if !n.Kind.IsTextblock() && a.Align != "" {
		return invalidNode(id, n, "alignment is not allowed")
	}
	if a.Align != "" && a.Align != AlignCenter && a.Align != AlignRight {
		return invalidNode(id, n, fmt.Sprintf("invalid alignment %q", a.Align))
	}
	if n.Kind != KindHeading && a.Level != 0 {
		return invalidNode(id, n, "level is only allowed on headings")
	}
	if n.Kind != KindImage && (a.Src != "" || a.Alt != "") {
		return invalidNode(id, n, "src and alt are only allowed on images")
	}
	if n.Kind != KindEmbed && a.HTML != "" {
		return invalidNode(id, n, "html is only allowed on embeds")
	}

	switch n.Kind {
	case KindHeading:
		if a.Level < 1 || a.Level > 2 {
			return invalidNode(id, n, fmt.Sprintf("heading level %d out of range", a.Level))
		}
	case KindImage:
		if a.Src == "" {
			return invalidNode(id, n, "image without src")
		}
	case KindEmbed:
		if a.HTML == "" {
			return invalidNode(id, n, "embed without html")
		}
	case KindText:
		if n.Text == "" {
			return invalidNode(id, n, "empty text run")
		}
		if !MarksEqual(n.Marks, SortMarks(n.Marks)) {
			return invalidNode(id, n, "marks are not canonical")
		}
		if m, ok := FindMark(n.Marks, MarkLink); ok && m.Href == "" {
			return invalidNode(id, n, "link without href")
		}
	case KindBulletList, KindOrderedList, KindListItem, KindBlockquote:
		if len(n.Children) == 0 {
			return invalidNode(id, n, "container is empty")
		}
	case KindDoc, KindParagraph, KindHardBreak:
	default:
		return invalidNode(id, n, "unknown kind")
	}
	return nil
}

func invalidNode(id NodeID, n Node, msg string) error {
	return fmt.Errorf("%w: node %d (%s): %s", ErrInvalid, id, n.Kind, msg)
}
