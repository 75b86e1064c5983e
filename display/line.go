// Package display projects slide content trees into ordered display lines
// according to current card and section fold states.
package display

import (
	"fmt"

	"mtalk/latex"
	"mtalk/talk"
)

// Kind of display line.
type Kind int

const (
	Plain Kind = iota
	FoldedSummary
	ExpandedHeader
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case FoldedSummary:
		return "folded"
	case ExpandedHeader:
		return "expanded"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Line is one row of flattened slide.
type Line struct {
	Kind Kind
	// ExposedDepth is number of unfolded sections enclosing the line.
	ExposedDepth int
	// Bullet is 0 for none, 1 to 3 for bullet level and -1 for continuation
	// of previous bullet.
	Bullet   int
	Prespace int
	Centred  bool
	Heading  bool
	Rule     bool
	Text     string
	Height   int

	// Source is node line was produced from, it belongs to slide tree.
	Source talk.NodeID

	// Link and LinkCard are resolved hyperlink target, LinkCard 0 means
	// target card should not change.
	Link     *talk.Slide
	LinkCard int

	// Bitmap is set for LaTeX blocks.
	Bitmap *latex.Bitmap

	// LineNum is 1-based position of the line in the view.
	LineNum int
}

// PresentError reports text line which cannot be presented.
type PresentError struct {
	Text string
	Msg  string
}

func (e *PresentError) Error() string {
	return fmt.Sprintf("%s: %q", e.Msg, e.Text)
}
