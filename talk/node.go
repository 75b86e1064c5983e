package talk

import (
	"fmt"
)

// CardMask selects cards node is visible on: bit i set means visible when
// slide shows card i+1.
type CardMask uint16

// AllCards is default mask every slide starts with.
const AllCards CardMask = 0xFFFF

// MaxCards is the largest deck size representable by CardMask.
const MaxCards = 16

// Has reports if card (1-based) is included in the mask.
func (m CardMask) Has(card int) bool {
	if card < 1 || card > MaxCards {
		return false
	}
	return m&(1<<(card-1)) != 0
}

func (m CardMask) String() string {
	if m == AllCards {
		return "all"
	}
	out := make([]byte, 0, MaxCards)
	for card := 1; card <= MaxCards; card++ {
		if m.Has(card) {
			out = fmt.Appendf(out, "%d", card)
		}
	}
	return string(out)
}

// NodeID addresses node in the slide tree arena.
type NodeID int32

// NoNode is parent of the slide root.
const NoNode NodeID = -1

// NodeKind names variants of node Body.
type NodeKind int

const (
	KindLeaf NodeKind = iota
	KindSlide
	KindSection
	KindLatex
	KindVSpace
	KindRule
)

func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSlide:
		return "slide"
	case KindSection:
		return "section"
	case KindLatex:
		return "latex"
	case KindVSpace:
		return "vspace"
	case KindRule:
		return "rule"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// FoldState of a section, FoldUnset is never observed after parsing.
type FoldState int8

const (
	FoldUnset FoldState = iota
	Folded
	Unfolded
)

// Body is node content, one of *Root, *Leaf, *Section, *Latex, *VSpace or
// *Rule.
type Body interface {
	Kind() NodeKind
	isBody()
}

// Root is content of the slide itself.
type Root struct {
	Title    string
	Children []NodeID
	Images   []*SubImage
}

// Leaf is a single line of text, blank lines are leaves with empty text.
type Leaf struct {
	Text      string
	Hyperlink string
}

// Section is foldable block, its heading is the text line which preceded "[".
type Section struct {
	Heading   string
	Hyperlink string
	Children  []NodeID
	Folded    FoldState
	Images    []*SubImage
}

// Latex keeps verbatim LaTeX source lines.
type Latex struct {
	Lines   []string
	Centred bool
}

// VSpace is vertical spacer of Height units.
type VSpace struct {
	Height int
}

// Rule is horizontal line.
type Rule struct{}

func (*Root) Kind() NodeKind    { return KindSlide }
func (*Leaf) Kind() NodeKind    { return KindLeaf }
func (*Section) Kind() NodeKind { return KindSection }
func (*Latex) Kind() NodeKind   { return KindLatex }
func (*VSpace) Kind() NodeKind  { return KindVSpace }
func (*Rule) Kind() NodeKind    { return KindRule }

func (*Root) isBody()    {}
func (*Leaf) isBody()    {}
func (*Section) isBody() {}
func (*Latex) isBody()   {}
func (*VSpace) isBody()  {}
func (*Rule) isBody()    {}

// Node is an arena entry. Relationships are indexes into the same Tree.
type Node struct {
	Parent NodeID
	Mask   CardMask
	Body   Body
}

// Tree is an arena holding one slide content, root is always at index 0.
type Tree struct {
	nodes []Node
}

func newTree(title string) *Tree {
	return &Tree{nodes: []Node{{Parent: NoNode, Mask: AllCards, Body: &Root{Title: title}}}}
}

// RootID returns identifier of the slide root node.
func (t *Tree) RootID() NodeID {
	return 0
}

// Root returns slide root content.
func (t *Tree) Root() *Root {
	return t.nodes[0].Body.(*Root)
}

// Len returns number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns node by its identifier, panics on invalid one.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Children returns children of container node (slide root or section), nil
// for everything else.
func (t *Tree) Children(id NodeID) []NodeID {
	switch b := t.nodes[id].Body.(type) {
	case *Root:
		return b.Children
	case *Section:
		return b.Children
	}
	return nil
}

// LastChild returns last child of container node or NoNode.
func (t *Tree) LastChild(id NodeID) NodeID {
	children := t.Children(id)
	if len(children) == 0 {
		return NoNode
	}
	return children[len(children)-1]
}

// append adds new node as the last child of container.
func (t *Tree) append(parent NodeID, mask CardMask, body Body) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{Parent: parent, Mask: mask, Body: body})
	switch b := t.nodes[parent].Body.(type) {
	case *Root:
		b.Children = append(b.Children, id)
	case *Section:
		b.Children = append(b.Children, id)
	default:
		panic(fmt.Sprintf("node %d of kind %s cannot have children", parent, b.Kind()))
	}
	return id
}

// dropLastChild detaches last child of the container. Arena entry stays
// unreachable, which is fine since tree is rebuilt on every reload.
func (t *Tree) dropLastChild(parent NodeID) {
	switch b := t.nodes[parent].Body.(type) {
	case *Root:
		b.Children = b.Children[:len(b.Children)-1]
	case *Section:
		b.Children = b.Children[:len(b.Children)-1]
	}
}

// addImage anchors sub-image at container scope.
func (t *Tree) addImage(id NodeID, img *SubImage) {
	switch b := t.nodes[id].Body.(type) {
	case *Root:
		b.Images = append(b.Images, img)
	case *Section:
		b.Images = append(b.Images, img)
	}
}

// Walk visits nodes reachable from root depth first in document order.
func (t *Tree) Walk(fn func(id NodeID, depth int)) {
	var walk func(id NodeID, depth int)
	walk = func(id NodeID, depth int) {
		fn(id, depth)
		for _, child := range t.Children(id) {
			walk(child, depth+1)
		}
	}
	walk(t.RootID(), 0)
}
