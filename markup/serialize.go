package markup

import (
	"html"
	"strconv"
	"strings"

	"github.com/rgonek/blogpen/document"
)

type writer struct {
	doc document.Document
	sb  strings.Builder
}

// Serialize renders doc as markup. Identical documents always produce
// byte-identical output.
func Serialize(doc document.Document) string {
	w := &writer{doc: doc}
	w.writeNode(doc.Root())
	return w.sb.String()
}

func (w *writer) writeNode(id document.NodeID) {
	n := w.doc.Node(id)
	switch n.Kind {
	case document.KindDoc:
		w.writeChildren(n.Children)

	case document.KindParagraph:
		w.openBlock("p", n.Attrs.Align)
		w.writeInline(n.Children)
		w.sb.WriteString("</p>")

	case document.KindHeading:
		tag := "h" + strconv.Itoa(clampLevel(n.Attrs.Level))
		w.openBlock(tag, n.Attrs.Align)
		w.writeInline(n.Children)
		w.sb.WriteString("</" + tag + ">")

	case document.KindBulletList:
		w.sb.WriteString("<ul>")
		w.writeChildren(n.Children)
		w.sb.WriteString("</ul>")

	case document.KindOrderedList:
		w.sb.WriteString("<ol>")
		w.writeChildren(n.Children)
		w.sb.WriteString("</ol>")

	case document.KindListItem:
		w.sb.WriteString("<li>")
		w.writeChildren(n.Children)
		w.sb.WriteString("</li>")

	case document.KindBlockquote:
		w.sb.WriteString("<blockquote>")
		w.writeChildren(n.Children)
		w.sb.WriteString("</blockquote>")

	case document.KindEmbed:
		w.sb.WriteString(`<div data-type="` + embedDataType + `">`)
		w.sb.WriteString(n.Attrs.HTML)
		w.sb.WriteString("</div>")

	case document.KindImage:
		w.sb.WriteString(`<img src="`)
		w.sb.WriteString(html.EscapeString(n.Attrs.Src))
		w.sb.WriteString(`"`)
		if n.Attrs.Alt != "" {
			w.sb.WriteString(` alt="`)
			w.sb.WriteString(html.EscapeString(n.Attrs.Alt))
			w.sb.WriteString(`"`)
		}
		w.sb.WriteString(">")

	case document.KindHardBreak:
		w.sb.WriteString("<br>")

	case document.KindText:
		w.writeInline([]document.NodeID{id})
	}
}

func (w *writer) writeChildren(ids []document.NodeID) {
	for _, id := range ids {
		w.writeNode(id)
	}
}

func (w *writer) openBlock(tag string, align document.Align) {
	w.sb.WriteString("<" + tag)
	if align != "" && align != document.AlignLeft {
		w.sb.WriteString(` style="text-align: ` + string(align) + `"`)
	}
	w.sb.WriteString(">")
}

// writeInline renders inline content keeping marks open across adjacent runs
// that share a common prefix of marks.
func (w *writer) writeInline(ids []document.NodeID) {
	var active []document.Mark

	for _, id := range ids {
		n := w.doc.Node(id)
		var current []document.Mark
		if n.Kind == document.KindText {
			current = n.Marks
		}

		common := commonMarkPrefix(active, current)
		for i := len(active) - 1; i >= common; i-- {
			w.closeMark(active[i])
		}
		for _, m := range current[common:] {
			w.openMark(m)
		}
		active = current

		if n.Kind == document.KindText {
			w.sb.WriteString(html.EscapeString(n.Text))
			continue
		}
		w.writeNode(id)
	}

	for i := len(active) - 1; i >= 0; i-- {
		w.closeMark(active[i])
	}
}

func commonMarkPrefix(a, b []document.Mark) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func (w *writer) openMark(m document.Mark) {
	switch m.Type {
	case document.MarkLink:
		w.sb.WriteString(`<a href="` + html.EscapeString(m.Href) + `">`)
	case document.MarkBold:
		w.sb.WriteString("<strong>")
	case document.MarkItalic:
		w.sb.WriteString("<em>")
	case document.MarkUnderline:
		w.sb.WriteString("<u>")
	}
}

func (w *writer) closeMark(m document.Mark) {
	switch m.Type {
	case document.MarkLink:
		w.sb.WriteString("</a>")
	case document.MarkBold:
		w.sb.WriteString("</strong>")
	case document.MarkItalic:
		w.sb.WriteString("</em>")
	case document.MarkUnderline:
		w.sb.WriteString("</u>")
	}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 2 {
		return 2
	}
	return level
}
