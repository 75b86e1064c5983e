package talk

import (
	"strconv"

	"mtalk/utils/debug"
)

type treeWriter struct {
	*debug.TreeWriter
}

// String returns readable dump of the whole talk. It exists for manual
// inspection and "dump" command.
func (t *Talk) String() string {
	if t == nil {
		return "<nil Talk>"
	}
	tw := treeWriter{debug.NewTreeWriterIndent("   ")}
	tw.Line(0, "Talk slides=%d", len(t.Slides))
	if !t.DesignSize.IsZero() {
		tw.Line(1, "DesignSize=%s", t.DesignSize)
	}
	if t.CanvasColour != "" {
		tw.Line(1, "CanvasColour=%q", t.CanvasColour)
	}
	for i, sl := range t.Slides {
		tw.slide(1, i, sl)
	}
	return tw.String()
}

// String returns readable dump of a single slide.
func (s *Slide) String() string {
	if s == nil {
		return "<nil Slide>"
	}
	tw := treeWriter{debug.NewTreeWriterIndent("   ")}
	tw.slide(0, 0, s)
	return tw.String()
}

func (tw treeWriter) slide(depth, index int, sl *Slide) {
	styleName := ""
	if sl.Style != nil {
		styleName = sl.Style.Name
	}
	tw.Line(depth, "Slide[%d] title=%q style=%q cards=%d/%d pos=%s", index, sl.Title(), styleName, sl.Card, sl.DeckSize, sl.Pos)
	if sl.IsImage() {
		tw.Line(depth+1, "ImageFile=%q", sl.ImageFile)
	}
	for _, id := range sl.Tree.Root().Children {
		tw.node(depth+1, sl.Tree, id)
	}
	tw.images(depth+1, sl.Tree.Root().Images)
}

func (tw treeWriter) node(depth int, tree *Tree, id NodeID) {
	n := tree.Node(id)
	switch b := n.Body.(type) {
	case *Leaf:
		tw.TextBlock(depth, "Leaf#"+strconv.Itoa(int(id))+maskLabel(n.Mask)+linkLabel(b.Hyperlink), b.Text)
	case *Section:
		state := "folded"
		if b.Folded == Unfolded {
			state = "unfolded"
		}
		tw.TextBlock(depth, "Section#"+strconv.Itoa(int(id))+" "+state+maskLabel(n.Mask)+linkLabel(b.Hyperlink), b.Heading)
		for _, child := range b.Children {
			tw.node(depth+1, tree, child)
		}
		tw.images(depth+1, b.Images)
	case *Latex:
		label := "Latex#" + strconv.Itoa(int(id))
		if b.Centred {
			label += " centred"
		}
		tw.Verbatim(depth, label+maskLabel(n.Mask), b.Lines)
	case *VSpace:
		tw.Line(depth, "VSpace#%d height=%d%s", id, b.Height, maskLabel(n.Mask))
	case *Rule:
		tw.Line(depth, "Rule#%d%s", id, maskLabel(n.Mask))
	}
}

func (tw treeWriter) images(depth int, images []*SubImage) {
	for _, img := range images {
		tw.Line(depth, "Image path=%q cards=%s pos=%s%s", img.Path, img.Mask, img.Pos, linkLabel(img.Hyperlink))
	}
}

func maskLabel(m CardMask) string {
	if m == AllCards {
		return ""
	}
	return " cards=" + m.String()
}

func linkLabel(target string) string {
	if target == "" {
		return ""
	}
	return " link=" + target
}
