package talk

import (
	"testing"
)

func deckSlide(t *testing.T) *Slide {
	t.Helper()
	tk := mustParse(t, "@Deck slide\n!123\nx\n")
	sl := tk.Slides[0]
	sl.Pos = Point{X: 100, Y: 200}
	return sl
}

func TestSlide_NextPreviousCard(t *testing.T) {
	sl := deckSlide(t)
	if sl.DeckSize != 3 {
		t.Fatalf("deck size = %d", sl.DeckSize)
	}

	sl.NextCard(DefaultCardEdge)
	if sl.Card != 2 || sl.Pos != (Point{X: 116, Y: 184}) {
		t.Fatalf("after next: card %d pos %s", sl.Card, sl.Pos)
	}
	sl.NextCard(DefaultCardEdge)
	sl.NextCard(DefaultCardEdge)
	if sl.Card != 1 || sl.Pos != (Point{X: 100, Y: 200}) {
		t.Fatalf("after wrap: card %d pos %s", sl.Card, sl.Pos)
	}

	sl.PreviousCard(DefaultCardEdge)
	if sl.Card != 3 || sl.Pos != (Point{X: 132, Y: 168}) {
		t.Fatalf("after previous wrap: card %d pos %s", sl.Card, sl.Pos)
	}
	if got := sl.FirstCardPos(DefaultCardEdge); got != (Point{X: 100, Y: 200}) {
		t.Fatalf("first card position = %s", got)
	}
	sl.PreviousCard(DefaultCardEdge)
	if sl.Card != 2 {
		t.Fatalf("card = %d, want 2", sl.Card)
	}
}

func TestSlide_SingleCardDeck(t *testing.T) {
	tk := mustParse(t, "@Plain\nx\n")
	sl := tk.Slides[0]
	sl.Pos = Point{X: 1, Y: 2}
	sl.NextCard(DefaultCardEdge)
	sl.PreviousCard(DefaultCardEdge)
	if sl.Card != 1 || sl.Pos != (Point{X: 1, Y: 2}) {
		t.Fatalf("single card deck must not move: card %d pos %s", sl.Card, sl.Pos)
	}
}

func TestSlide_GotoCard(t *testing.T) {
	sl := deckSlide(t)
	if err := sl.GotoCard(3, 10); err != nil {
		t.Fatalf("GotoCard: %v", err)
	}
	if sl.Card != 3 || sl.Pos != (Point{X: 120, Y: 180}) {
		t.Fatalf("card %d pos %s", sl.Card, sl.Pos)
	}
	for _, n := range []int{0, 4, -1} {
		if err := sl.GotoCard(n, 10); err == nil {
			t.Fatalf("GotoCard(%d) must fail", n)
		}
	}
	if sl.Card != 3 {
		t.Fatalf("failed GotoCard must not change card")
	}
}

func TestSlide_CardUnknownPosition(t *testing.T) {
	tk := mustParse(t, "@Deck slide\n!12\nx\n")
	sl := tk.Slides[0]
	sl.NextCard(DefaultCardEdge)
	if sl.Card != 2 || sl.Pos.Known() {
		t.Fatalf("unknown position must stay unknown, got %s", sl.Pos)
	}
}

func TestSlide_Folds(t *testing.T) {
	tk := mustParse(t, "@Folds\nA\n[\nB\n[\nc\n]\n]\nplain\n@Flat\nx\n")
	sl := tk.Slides[0]
	if !sl.IsFoldable() {
		t.Fatalf("slide with sections must be foldable")
	}
	if tk.Slides[1].IsFoldable() {
		t.Fatalf("slide without sections must not be foldable")
	}

	var sections []NodeID
	sl.Tree.Walk(func(id NodeID, _ int) {
		if sl.Tree.Node(id).Body.Kind() == KindSection {
			sections = append(sections, id)
		}
	})
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}

	sl.UnfoldAll()
	for _, id := range sections {
		if sl.Tree.Node(id).Body.(*Section).Folded != Unfolded {
			t.Fatalf("section %d not unfolded", id)
		}
	}
	if !sl.ToggleFold(sections[1]) || sl.Tree.Node(sections[1]).Body.(*Section).Folded != Folded {
		t.Fatalf("toggle must fold section")
	}
	sl.FoldAll()
	for _, id := range sections {
		if sl.Tree.Node(id).Body.(*Section).Folded != Folded {
			t.Fatalf("section %d not folded", id)
		}
	}

	last := sl.Tree.LastChild(sl.Tree.RootID())
	if sl.ToggleFold(last) || sl.ToggleFold(NodeID(sl.Tree.Len())) || sl.ToggleFold(NoNode) {
		t.Fatalf("toggle must reject non-section nodes")
	}
}

func TestTree_WalkDepth(t *testing.T) {
	tk := mustParse(t, "@Walk\nA\n[\nB\n[\nc\n]\n]\n")
	tree := tk.Slides[0].Tree
	var depths []int
	tree.Walk(func(_ NodeID, depth int) {
		depths = append(depths, depth)
	})
	want := []int{0, 1, 2, 3}
	if len(depths) != len(want) {
		t.Fatalf("depths = %v, want %v", depths, want)
	}
	for i := range want {
		if depths[i] != want[i] {
			t.Fatalf("depths = %v, want %v", depths, want)
		}
	}
}
