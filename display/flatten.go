package display

import (
	"fmt"

	"mtalk/latex"
	"mtalk/style"
	"mtalk/talk"
)

// LatexRenderer produces bitmaps for LaTeX blocks. Renderer is expected to
// return the same bitmap for the same block, otherwise flattening is not
// repeatable.
type LatexRenderer interface {
	Render(lines []string, st *style.Style) (*latex.Bitmap, error)
}

// View is flattened slide for particular card.
type View struct {
	Card  int
	Lines []Line
	// Images are sub-images visible on the card in flattening order.
	Images []*talk.SubImage
}

type flattener struct {
	tk   *talk.Talk
	tree *talk.Tree
	st   *style.Style
	card int
	tex  LatexRenderer
	view *View
}

// Flatten produces display lines of slide showing card, card 0 means current
// slide card. Result depends only on slide tree, fold states and card. When
// tex is nil LaTeX blocks produce lines without bitmaps.
func Flatten(tk *talk.Talk, sl *talk.Slide, card int, tex LatexRenderer) (*View, error) {
	if card <= 0 {
		card = sl.Card
	}
	view := &View{Card: card}
	if sl.IsImage() {
		return view, nil
	}
	if sl.Style == nil {
		return nil, fmt.Errorf("slide %q has no style", sl.Title())
	}

	f := &flattener{
		tk:   tk,
		tree: sl.Tree,
		st:   sl.Style,
		card: card,
		tex:  tex,
		view: view,
	}
	if err := f.node(sl.Tree.RootID(), 0); err != nil {
		return nil, fmt.Errorf("slide %q: %w", sl.Title(), err)
	}
	return view, nil
}

func (f *flattener) node(id talk.NodeID, depth int) error {
	n := f.tree.Node(id)
	if !n.Mask.Has(f.card) {
		return nil
	}

	switch b := n.Body.(type) {
	case *talk.Root:
		for _, child := range b.Children {
			if err := f.node(child, depth); err != nil {
				return err
			}
		}
		f.transferImages(b.Images)

	case *talk.Leaf:
		out := Line{Kind: Plain, ExposedDepth: depth, Source: id}
		f.link(&out, b.Hyperlink)
		if err := present(b.Text, f.st, &out); err != nil {
			return err
		}
		f.emit(out)

	case *talk.Section:
		out := Line{Kind: FoldedSummary, ExposedDepth: depth, Source: id}
		if b.Folded == talk.Unfolded {
			out.Kind = ExpandedHeader
		}
		f.link(&out, b.Hyperlink)
		if err := present(b.Heading, f.st, &out); err != nil {
			return err
		}
		f.emit(out)
		if out.Kind == FoldedSummary {
			return nil
		}
		for _, child := range b.Children {
			if err := f.node(child, depth+1); err != nil {
				return err
			}
		}
		f.transferImages(b.Images)

	case *talk.Latex:
		out := Line{
			Kind:         Plain,
			ExposedDepth: depth,
			Source:       id,
			Centred:      b.Centred,
			Height:       f.st.LatexSpaceAbove + f.st.LatexSpaceBelow,
		}
		if f.tex != nil {
			bm, err := f.tex.Render(b.Lines, f.st)
			if err != nil {
				return err
			}
			out.Bitmap = bm
			out.Height += bm.Height
		}
		f.emit(out)

	case *talk.VSpace:
		f.emit(Line{Kind: Plain, ExposedDepth: depth, Source: id, Height: b.Height})

	case *talk.Rule:
		f.emit(Line{Kind: Plain, ExposedDepth: depth, Source: id, Rule: true, Height: f.st.RuleBlockHeight()})

	default:
		return fmt.Errorf("unexpected node %d of kind %s", id, n.Body.Kind())
	}
	return nil
}

func (f *flattener) emit(out Line) {
	out.LineNum = len(f.view.Lines) + 1
	f.view.Lines = append(f.view.Lines, out)
}

// link resolves hyperlink target, misses leave line without link.
func (f *flattener) link(out *Line, target string) {
	if target == "" {
		return
	}
	sl, card, err := f.tk.Resolve(target)
	if err != nil {
		return
	}
	out.Link, out.LinkCard = sl, card
}

func (f *flattener) transferImages(images []*talk.SubImage) {
	for _, img := range images {
		if img.Mask.Has(f.card) {
			f.view.Images = append(f.view.Images, img)
		}
	}
}
