package talk

import (
	"fmt"
)

// DefaultCardEdge is offset between stacked cards of a deck in design units.
const DefaultCardEdge = 16

// NextCard advances slide to the next card wrapping to the first one. Slide
// position follows the card so that card 1 stays in place on canvas.
func (s *Slide) NextCard(edge int) {
	if s.Card < s.DeckSize {
		s.moveCard(s.Card+1, edge)
		return
	}
	s.moveCard(1, edge)
}

// PreviousCard moves slide to the previous card wrapping to the last one.
func (s *Slide) PreviousCard(edge int) {
	if s.Card > 1 {
		s.moveCard(s.Card-1, edge)
		return
	}
	s.moveCard(s.DeckSize, edge)
}

// GotoCard switches slide to card n.
func (s *Slide) GotoCard(n, edge int) error {
	if n < 1 || n > s.DeckSize {
		return fmt.Errorf("no such card number %d in slide %q", n, s.Title())
	}
	s.moveCard(n, edge)
	return nil
}

func (s *Slide) moveCard(n, edge int) {
	if n == s.Card {
		return
	}
	if s.Pos.Known() {
		s.Pos.X += edge * (n - s.Card)
		s.Pos.Y -= edge * (n - s.Card)
	}
	s.Card = n
}

// FirstCardPos returns position slide would have showing card 1.
func (s *Slide) FirstCardPos(edge int) Point {
	if !s.Pos.Known() || s.Card <= 1 {
		return s.Pos
	}
	return Point{X: s.Pos.X - edge*(s.Card-1), Y: s.Pos.Y + edge*(s.Card-1)}
}

// FoldAll folds every section of the slide.
func (s *Slide) FoldAll() {
	s.setFolds(Folded)
}

// UnfoldAll unfolds every section of the slide.
func (s *Slide) UnfoldAll() {
	s.setFolds(Unfolded)
}

func (s *Slide) setFolds(state FoldState) {
	s.Tree.Walk(func(id NodeID, _ int) {
		if sec, ok := s.Tree.Node(id).Body.(*Section); ok {
			sec.Folded = state
		}
	})
}

// IsFoldable reports whether slide has at least one top level section.
func (s *Slide) IsFoldable() bool {
	for _, id := range s.Tree.Root().Children {
		if s.Tree.Node(id).Body.Kind() == KindSection {
			return true
		}
	}
	return false
}

// ToggleFold flips fold state of section node, returns false when node is
// not a section.
func (s *Slide) ToggleFold(id NodeID) bool {
	if id < 0 || int(id) >= s.Tree.Len() {
		return false
	}
	sec, ok := s.Tree.Node(id).Body.(*Section)
	if !ok {
		return false
	}
	if sec.Folded == Folded {
		sec.Folded = Unfolded
	} else {
		sec.Folded = Folded
	}
	return true
}
