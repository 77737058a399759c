package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rgonek/blogpen/document"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func (s *state) convertInline(nodes []*html.Node, marks []document.Mark) ([]document.Tree, error) {
	var out []document.Tree
	for _, n := range nodes {
		converted, err := s.convertInlineNode(n, marks)
		if err != nil {
			return nil, err
		}
		out = append(out, converted...)
	}
	return out, nil
}

func (s *state) convertInlineNode(n *html.Node, marks []document.Mark) ([]document.Tree, error) {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return nil, nil
		}
		return []document.Tree{document.Text(n.Data, marks...)}, nil
	case html.ElementNode:
	default:
		return nil, nil
	}

	switch n.DataAtom {
	case atom.Strong, atom.B:
		return s.convertInline(childNodes(n), document.AddMark(marks, document.Bold()))
	case atom.Em, atom.I:
		return s.convertInline(childNodes(n), document.AddMark(marks, document.Italic()))
	case atom.U:
		return s.convertInline(childNodes(n), document.AddMark(marks, document.Underline()))

	case atom.A:
		href := strings.TrimSpace(attr(n, "href"))
		if href == "" {
			s.addWarning(WarningMissingAttribute, n.Data, "link without href unwrapped")
			return s.convertInline(childNodes(n), marks)
		}
		return s.convertInline(childNodes(n), document.AddMark(marks, document.Link(href)))

	case atom.Img:
		src := strings.TrimSpace(attr(n, "src"))
		if src == "" {
			s.addWarning(WarningMissingAttribute, n.Data, "image without src dropped")
			return nil, nil
		}
		return []document.Tree{document.Image(src, attr(n, "alt"))}, nil

	case atom.Br:
		return []document.Tree{document.HardBreak()}, nil

	case atom.Script, atom.Style, atom.Template:
		s.addWarning(WarningDroppedFeature, n.Data, fmt.Sprintf("<%s> content dropped", n.Data))
		return nil, nil
	}

	return s.unknownInline(n, marks)
}

// unknownInline degrades an inline wrapper outside the schema by keeping its
// content with the marks collected so far.
func (s *state) unknownInline(n *html.Node, marks []document.Mark) ([]document.Tree, error) {
	switch s.config.UnknownTags {
	case UnknownError:
		return nil, s.unknownTagError(n)
	case UnknownSkip:
		s.addWarning(WarningUnknownMark, n.Data, fmt.Sprintf("<%s> skipped", n.Data))
		return nil, nil
	}

	s.addWarning(WarningUnknownMark, n.Data, fmt.Sprintf("<%s> unwrapped", n.Data))
	return s.convertInline(childNodes(n), marks)
}

func childNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func nodeName(n *html.Node) string {
	if n.Type == html.TextNode {
		return "#text"
	}
	return n.Data
}

// renderNodes renders nodes back to markup. Rendering a parsed tree gives a
// canonical form, so equal embeds always compare equal.
func renderNodes(nodes []*html.Node) string {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return ""
		}
	}
	return buf.String()
}
