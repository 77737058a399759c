package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rgonek/blogpen/document"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	textAlignRe = regexp.MustCompile(`(?i)\btext-align\s*:\s*(left|center|right)\b`)

	blockTags = map[atom.Atom]bool{
		atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
		atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Blockquote: true, atom.Div: true,
		atom.Iframe: true, atom.Video: true, atom.Pre: true, atom.Table: true, atom.Hr: true,
		atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true, atom.Aside: true,
		atom.Nav: true, atom.Main: true, atom.Figure: true, atom.Figcaption: true, atom.Dl: true,
		atom.Dt: true, atom.Dd: true, atom.Form: true, atom.Fieldset: true, atom.Address: true,
		atom.Details: true, atom.Summary: true, atom.Script: true, atom.Style: true, atom.Template: true,
	}
)

const (
	embedDataType    = "embed"
	legacyEmbedClass = "video-container"
)

func isBlockTag(n *html.Node) bool {
	return n.Type == html.ElementNode && blockTags[n.DataAtom]
}

// convertBlocks converts sibling nodes into block trees. Inline content found
// between blocks is collected into implicit paragraphs.
func (s *state) convertBlocks(nodes []*html.Node) ([]document.Tree, error) {
	var blocks []document.Tree
	var pending []document.Tree

	flush := func() {
		pending = trimTrailingNewlines(pending)
		if len(pending) > 0 {
			blocks = append(blocks, document.Paragraph(pending...))
		}
		pending = nil
	}

	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			if len(pending) == 0 && strings.TrimSpace(n.Data) == "" {
				continue
			}
			pending = append(pending, document.Text(n.Data))
			continue
		case html.ElementNode:
		default:
			continue
		}

		if !isBlockTag(n) {
			inline, err := s.convertInlineNode(n, nil)
			if err != nil {
				return nil, err
			}
			pending = append(pending, inline...)
			continue
		}

		flush()
		converted, err := s.convertBlock(n)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, converted...)
	}
	flush()

	return blocks, nil
}

func (s *state) convertBlock(n *html.Node) ([]document.Tree, error) {
	switch n.DataAtom {
	case atom.P:
		return s.convertTextblock(n, document.Paragraph())

	case atom.H1:
		return s.convertTextblock(n, document.Heading(1))
	case atom.H2:
		return s.convertTextblock(n, document.Heading(2))
	case atom.H3, atom.H4, atom.H5, atom.H6:
		s.addWarning(WarningDroppedFeature, n.Data, fmt.Sprintf("heading level of <%s> clamped to 2", n.Data))
		return s.convertTextblock(n, document.Heading(2))

	case atom.Ul:
		return s.convertList(childNodes(n), document.KindBulletList)
	case atom.Ol:
		return s.convertList(childNodes(n), document.KindOrderedList)
	case atom.Li:
		s.addWarning(WarningUnknownTag, n.Data, "list item outside a list wrapped in a bullet list")
		return s.convertList([]*html.Node{n}, document.KindBulletList)

	case atom.Blockquote:
		children, err := s.convertBlocks(childNodes(n))
		if err != nil {
			return nil, err
		}
		return []document.Tree{document.Blockquote(children...)}, nil

	case atom.Div:
		if attr(n, "data-type") == embedDataType || hasClass(n, legacyEmbedClass) {
			return s.convertEmbed(n, renderNodes(childNodes(n)))
		}
		return s.unknownBlock(n)

	case atom.Iframe, atom.Video:
		return s.convertEmbed(n, renderNodes([]*html.Node{n}))

	case atom.Script, atom.Style, atom.Template:
		s.addWarning(WarningDroppedFeature, n.Data, fmt.Sprintf("<%s> content dropped", n.Data))
		return nil, nil
	}

	return s.unknownBlock(n)
}

func (s *state) convertTextblock(n *html.Node, block document.Tree) ([]document.Tree, error) {
	inline, err := s.convertInline(childNodes(n), nil)
	if err != nil {
		return nil, err
	}
	block.Children = inline
	return []document.Tree{block.WithAlign(alignOf(n))}, nil
}

func (s *state) convertList(children []*html.Node, kind document.Kind) ([]document.Tree, error) {
	var items []document.Tree
	for _, c := range children {
		if c.Type == html.ElementNode && c.DataAtom == atom.Li {
			blocks, err := s.convertBlocks(childNodes(c))
			if err != nil {
				return nil, err
			}
			items = append(items, document.ListItem(blocks...))
			continue
		}
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}

		s.addWarning(WarningUnknownTag, nodeName(c), "content outside a list item wrapped in a list item")
		blocks, err := s.convertBlocks([]*html.Node{c})
		if err != nil {
			return nil, err
		}
		items = append(items, document.ListItem(blocks...))
	}

	if len(items) == 0 {
		return nil, nil
	}
	return []document.Tree{{Kind: kind, Children: items}}, nil
}

func (s *state) convertEmbed(n *html.Node, inner string) ([]document.Tree, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		s.addWarning(WarningMissingAttribute, n.Data, "embed without content dropped")
		return nil, nil
	}
	clean := NormalizeEmbed(inner)
	if clean == "" {
		s.addWarning(WarningDroppedFeature, n.Data, "embed with nothing that can be shown dropped")
		return nil, nil
	}
	if clean != inner {
		s.addWarning(WarningDroppedFeature, n.Data, "unsafe embed content removed")
	}
	if len(clean) > s.config.MaxEmbedBytes {
		s.addWarning(WarningDroppedFeature, n.Data, fmt.Sprintf("embed of %d bytes exceeds the %d byte limit", len(clean), s.config.MaxEmbedBytes))
		return nil, nil
	}
	return []document.Tree{document.Embed(clean)}, nil
}

// unknownBlock degrades a block outside the schema. Containers of blocks are
// unwrapped, anything else becomes a paragraph holding its inline content.
func (s *state) unknownBlock(n *html.Node) ([]document.Tree, error) {
	switch s.config.UnknownTags {
	case UnknownError:
		return nil, s.unknownTagError(n)
	case UnknownSkip:
		s.addWarning(WarningUnknownTag, n.Data, fmt.Sprintf("<%s> skipped", n.Data))
		return nil, nil
	}

	s.addWarning(WarningUnknownTag, n.Data, fmt.Sprintf("<%s> converted to generic content", n.Data))
	children := childNodes(n)
	if hasBlockChild(n) {
		return s.convertBlocks(children)
	}

	inline, err := s.convertInline(children, nil)
	if err != nil {
		return nil, err
	}
	inline = trimTrailingNewlines(inline)
	if document.InlineLen(inline) == 0 {
		return nil, nil
	}
	return []document.Tree{document.Paragraph(inline...)}, nil
}

func alignOf(n *html.Node) document.Align {
	m := textAlignRe.FindStringSubmatch(attr(n, "style"))
	if m == nil {
		return ""
	}
	return document.Align(strings.ToLower(m[1]))
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlockTag(c) {
			return true
		}
	}
	return false
}

func trimTrailingNewlines(inline []document.Tree) []document.Tree {
	for len(inline) > 0 {
		last := inline[len(inline)-1]
		if last.Kind != document.KindText {
			return inline
		}
		trimmed := strings.TrimRight(last.Text, "\r\n")
		if trimmed != "" {
			inline[len(inline)-1].Text = trimmed
			return inline
		}
		inline = inline[:len(inline)-1]
	}
	return inline
}
