package talk

import (
	"fmt"

	"mtalk/style"
)

// UnknownPos marks canvas coordinate which is not resolved yet.
const UnknownPos = -66666

// Point is a position on the talk canvas.
type Point struct {
	X, Y int
}

// Unknown returns point with both coordinates unresolved.
func Unknown() Point {
	return Point{X: UnknownPos, Y: UnknownPos}
}

// Known reports whether point was resolved.
func (p Point) Known() bool {
	return p.X != UnknownPos && p.Y != UnknownPos
}

func (p Point) String() string {
	if !p.Known() {
		return "(?)"
	}
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// SubImage is an image anchored within slide or section scope. Its position
// is relative to the slide and kept in raw (unscaled) units.
type SubImage struct {
	Path      string
	Mask      CardMask
	Hyperlink string
	Pos       Point
}

// Slide is one top-level presentation unit.
type Slide struct {
	Tree  *Tree
	Style *style.Style

	// DeckSize and Card are 1-based, Card is always in [1, DeckSize].
	DeckSize int
	Card     int

	// Pos is slide position on canvas in screen units.
	Pos Point

	// Images lists all sub-images declared under this slide in declaration
	// order, regardless of the section they are anchored to.
	Images []*SubImage

	// ImageFile is set for image slides, such slides have no content.
	ImageFile string
}

// Title returns unique slide title.
func (s *Slide) Title() string {
	return s.Tree.Root().Title
}

// IsImage reports whether slide shows image file instead of text.
func (s *Slide) IsImage() bool {
	return s.ImageFile != ""
}

// Size is width and height pair in design or screen units.
type Size struct {
	Width, Height int
}

// IsZero reports if size was not specified.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Talk is parsed talk script. It is rebuilt from scratch on every reload and
// never mutated structurally after parsing, only fold states, current cards
// and positions change.
type Talk struct {
	Slides []*Slide

	// DesignSize is set by "designsize" global option.
	DesignSize Size
	// CanvasColour is set by "canvascolour" global option, colour name is
	// resolved by renderer.
	CanvasColour string

	byTitle map[string]*Slide
}

// Slide returns slide with exact title or nil.
func (t *Talk) Slide(title string) *Slide {
	return t.byTitle[title]
}

// Index returns position of slide in document order or -1.
func (t *Talk) Index(sl *Slide) int {
	for i, s := range t.Slides {
		if s == sl {
			return i
		}
	}
	return -1
}
