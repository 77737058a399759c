package document

// Kind identifies the type of a node.
type Kind string

const (
	KindDoc         Kind = "doc"
	KindParagraph   Kind = "paragraph"
	KindHeading     Kind = "heading"
	KindBulletList  Kind = "bulletList"
	KindOrderedList Kind = "orderedList"
	KindListItem    Kind = "listItem"
	KindBlockquote  Kind = "blockquote"
	KindImage       Kind = "image"
	KindEmbed       Kind = "embed"
	KindText        Kind = "text"
	KindHardBreak   Kind = "hardBreak"
)

// IsBlock reports whether nodes of this kind live in block containers.
func (k Kind) IsBlock() bool {
	switch k {
	case KindParagraph, KindHeading, KindBulletList, KindOrderedList, KindBlockquote, KindEmbed:
		return true
	}
	return false
}

// IsInline reports whether nodes of this kind live inside textblocks.
func (k Kind) IsInline() bool {
	switch k {
	case KindText, KindImage, KindHardBreak:
		return true
	}
	return false
}

// IsTextblock reports whether the kind holds inline content.
func (k Kind) IsTextblock() bool {
	return k == KindParagraph || k == KindHeading
}

// IsList reports whether the kind is one of the list containers.
func (k Kind) IsList() bool {
	return k == KindBulletList || k == KindOrderedList
}

// Align is the horizontal alignment of a textblock.
// The zero value renders as left.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Effective returns the alignment a renderer should apply.
func (a Align) Effective() Align {
	if a == "" {
		return AlignLeft
	}
	return a
}

func (a Align) normalize() Align {
	if a == AlignLeft {
		return ""
	}
	return a
}

// Attrs carries the kind-specific attributes of a node.
type Attrs struct {
	Level int    `json:"level,omitempty"`
	Src   string `json:"src,omitempty"`
	Alt   string `json:"alt,omitempty"`
	HTML  string `json:"html,omitempty"`
	Align Align  `json:"align,omitempty"`
}

// NodeID addresses a node inside its document arena.
type NodeID int

// Node is one arena entry. Children are arena indexes owned by this node.
type Node struct {
	Kind     Kind
	Text     string
	Marks    []Mark
	Attrs    Attrs
	Children []NodeID
}

// Document is an immutable tree of nodes stored in a single arena.
// The root is always at index 0 and nodes are laid out in preorder.
// The zero value is the default document.
type Document struct {
	nodes []Node
}

var defaultNodes = []Node{
	{Kind: KindDoc, Children: []NodeID{1}},
	{Kind: KindParagraph},
}

// Default returns the empty document: a root holding one empty paragraph.
func Default() Document {
	return Document{}
}

// New builds a document from top-level blocks.
func New(blocks ...Tree) Document {
	return Build(Tree{Kind: KindDoc, Children: blocks})
}

// Build lays a tree out into a fresh arena. The tree is normalized first:
// marks are put in canonical order, empty text runs are dropped, adjacent
// runs with equal marks are merged and empty containers get a paragraph.
func Build(root Tree) Document {
	if root.Kind != KindDoc {
		root = Tree{Kind: KindDoc, Children: []Tree{root}}
	}
	root = normalize(root)
	if len(root.Children) == 0 {
		return Default()
	}

	d := Document{nodes: make([]Node, 0, root.size())}
	d.add(root)
	return d
}

func (d *Document) add(t Tree) NodeID {
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, Node{
		Kind:  t.Kind,
		Text:  t.Text,
		Marks: cloneMarks(t.Marks),
		Attrs: t.Attrs,
	})
	if len(t.Children) > 0 {
		children := make([]NodeID, 0, len(t.Children))
		for _, child := range t.Children {
			children = append(children, d.add(child))
		}
		d.nodes[id].Children = children
	}
	return id
}

func (d Document) arena() []Node {
	if len(d.nodes) == 0 {
		return defaultNodes
	}
	return d.nodes
}

// Root returns the id of the root node.
func (d Document) Root() NodeID {
	return 0
}

// Len returns the number of nodes in the arena.
func (d Document) Len() int {
	return len(d.arena())
}

// Node returns the node stored at id. The returned slices are shared with
// the document and must not be modified.
func (d Document) Node(id NodeID) Node {
	return d.arena()[id]
}

// Tree returns a deep copy of the document as a nested value.
func (d Document) Tree() Tree {
	return treeAt(d.arena(), 0)
}

func treeAt(nodes []Node, id NodeID) Tree {
	n := nodes[id]
	t := Tree{
		Kind:  n.Kind,
		Text:  n.Text,
		Marks: cloneMarks(n.Marks),
		Attrs: n.Attrs,
	}
	if len(n.Children) > 0 {
		t.Children = make([]Tree, 0, len(n.Children))
		for _, child := range n.Children {
			t.Children = append(t.Children, treeAt(nodes, child))
		}
	}
	return t
}

// Textblocks returns paragraph and heading ids in document order.
func (d Document) Textblocks() []NodeID {
	nodes := d.arena()
	var ids []NodeID
	for i, n := range nodes {
		if n.Kind.IsTextblock() {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// Equal reports whether two documents have the same structure and content.
func Equal(a, b Document) bool {
	an, bn := a.arena(), b.arena()
	if len(an) != len(bn) {
		return false
	}
	return nodesEqual(an, bn, 0, 0)
}

func nodesEqual(an, bn []Node, ai, bi NodeID) bool {
	x, y := an[ai], bn[bi]
	if x.Kind != y.Kind || x.Text != y.Text || x.Attrs != y.Attrs {
		return false
	}
	if !MarksEqual(x.Marks, y.Marks) || len(x.Children) != len(y.Children) {
		return false
	}
	for i := range x.Children {
		if !nodesEqual(an, bn, x.Children[i], y.Children[i]) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether d is exactly the default document. A paragraph
// holding only whitespace counts as content.
func IsEmpty(d Document) bool {
	nodes := d.arena()
	if len(nodes) != 2 || len(nodes[0].Children) != 1 {
		return false
	}
	p := nodes[nodes[0].Children[0]]
	return p.Kind == KindParagraph && len(p.Children) == 0 && p.Attrs == Attrs{}
}
