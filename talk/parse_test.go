package talk

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"mtalk/config"
	"mtalk/style"
)

func testStyles(t *testing.T) *style.Registry {
	t.Helper()

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration: %v", err)
	}
	reg, err := style.NewRegistry(cfg.Styles)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func scriptLines(script string) []string {
	return strings.Split(strings.TrimSuffix(script, "\n"), "\n")
}

func mustParse(t *testing.T, script string) *Talk {
	t.Helper()

	tk, err := Parse(scriptLines(script), ParseOptions{Styles: testStyles(t)}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tk
}

func childKinds(tree *Tree, id NodeID) []NodeKind {
	var kinds []NodeKind
	for _, child := range tree.Children(id) {
		kinds = append(kinds, tree.Node(child).Body.Kind())
	}
	return kinds
}

func equalKinds(a, b []NodeKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParse_Structure(t *testing.T) {
	tk := mustParse(t, `@First
Hello
Heading
[
child one
child two
]

@Second
text
`)
	if len(tk.Slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(tk.Slides))
	}

	first := tk.Slides[0]
	if first.Title() != "First" {
		t.Fatalf("unexpected title %q", first.Title())
	}
	if first.DeckSize != 1 || first.Card != 1 {
		t.Fatalf("unexpected deck %d/%d", first.Card, first.DeckSize)
	}
	if first.Pos.Known() {
		t.Fatalf("position must be unknown after parsing")
	}
	if first.Style == nil || first.Style.Name != "default" {
		t.Fatalf("slide must start with default style")
	}

	tree := first.Tree
	got := childKinds(tree, tree.RootID())
	if want := []NodeKind{KindLeaf, KindSection}; !equalKinds(got, want) {
		t.Fatalf("root children = %v, want %v (trailing blank must be trimmed)", got, want)
	}

	secID := tree.Root().Children[1]
	sec := tree.Node(secID).Body.(*Section)
	if sec.Heading != "Heading" {
		t.Fatalf("section heading = %q", sec.Heading)
	}
	if sec.Folded != Folded {
		t.Fatalf("section must start folded")
	}
	if len(sec.Children) != 2 {
		t.Fatalf("section children = %d, want 2", len(sec.Children))
	}
	for _, child := range sec.Children {
		if tree.Node(child).Parent != secID {
			t.Fatalf("child %d has parent %d, want %d", child, tree.Node(child).Parent, secID)
		}
	}

	if tk.Slide("Second") != tk.Slides[1] {
		t.Fatalf("lookup by title failed")
	}
	if tk.Index(tk.Slides[1]) != 1 {
		t.Fatalf("unexpected slide index")
	}
}

func TestParse_Deterministic(t *testing.T) {
	script := `@designsize=800x600
@Intro
>)Welcome
^continued
!13
Shown on cards one and three
!!
Outline
[
* point
Sub
[
** deeper
]
]
!pic.png
:Finale.2
\)
x^2
\
%space 40
--
@Finale
the end
`
	a := mustParse(t, script)
	b := mustParse(t, script)
	if a.String() != b.String() {
		t.Fatalf("parsing is not deterministic:\n%s\n---\n%s", a, b)
	}
}

func TestParse_CardMask(t *testing.T) {
	tk := mustParse(t, `@Deck slide
always
!13
odd cards
!!
again always
`)
	sl := tk.Slides[0]
	if sl.DeckSize < 3 {
		t.Fatalf("deck size = %d, want >= 3", sl.DeckSize)
	}

	ids := sl.Tree.Root().Children
	if len(ids) != 3 {
		t.Fatalf("expected 3 children, got %d", len(ids))
	}
	mask := sl.Tree.Node(ids[1]).Mask
	if !mask.Has(1) || mask.Has(2) || !mask.Has(3) {
		t.Fatalf("mask %s must include cards 1 and 3 only", mask)
	}
	if sl.Tree.Node(ids[0]).Mask != AllCards || sl.Tree.Node(ids[2]).Mask != AllCards {
		t.Fatalf("mask must be reset by !!")
	}
}

func TestParse_MaskWithWhitespace(t *testing.T) {
	tk := mustParse(t, "@Deck slide\n!2 \t4\nx\n")
	sl := tk.Slides[0]
	if sl.DeckSize != 4 {
		t.Fatalf("deck size = %d, want 4", sl.DeckSize)
	}
	mask := sl.Tree.Node(sl.Tree.Root().Children[0]).Mask
	if mask != 0b1010 {
		t.Fatalf("mask = %b, want 1010", mask)
	}
}

func TestParse_Blanks(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{"after header skipped", []string{"@One", "", "text"}, []string{"text"}},
		{"consecutive kept", []string{"@One", "a", "", "", "b"}, []string{"a", "", "", "b"}},
		{"whitespace only is blank", []string{"@One", "a", " \t ", "b"}, []string{"a", "", "b"}},
		{"trailing trimmed", []string{"@One", "a", "", "@Two", "b"}, []string{"a"}},
		{"single trailing at end trimmed", []string{"@One", "a", "b", ""}, []string{"a", "b"}},
		{"before first slide ignored", []string{"", "@One", "a"}, []string{"a"}},
		{"comment keeps blank state", []string{"@One", "a", "", "# note", "@Two", "b"}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk, err := Parse(tt.lines, ParseOptions{}, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tree := tk.Slides[0].Tree
			var got []string
			for _, id := range tree.Root().Children {
				got = append(got, tree.Node(id).Body.(*Leaf).Text)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Fatalf("leaves = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_CommentDoesNotBreakSection(t *testing.T) {
	tk := mustParse(t, "@One\nHead\n# comment\n[\nx\n]\n")
	tree := tk.Slides[0].Tree
	sec, ok := tree.Node(tree.Root().Children[0]).Body.(*Section)
	if !ok || sec.Heading != "Head" {
		t.Fatalf("expected section Head, got %#v", tree.Node(tree.Root().Children[0]).Body)
	}
}

func TestParse_VSpaceAndRule(t *testing.T) {
	tk := mustParse(t, "@One\n%space 20\n%space 0\n%space 900\n%spacer 5\n--\n---\n")
	tree := tk.Slides[0].Tree
	ids := tree.Root().Children
	if len(ids) != 6 {
		t.Fatalf("expected 6 children, got %d", len(ids))
	}
	if vs, ok := tree.Node(ids[0]).Body.(*VSpace); !ok || vs.Height != 20 {
		t.Fatalf("expected vspace 20, got %#v", tree.Node(ids[0]).Body)
	}
	for i, text := range map[int]string{1: "%space 0", 2: "%space 900", 3: "%spacer 5", 5: "---"} {
		if leaf, ok := tree.Node(ids[i]).Body.(*Leaf); !ok || leaf.Text != text {
			t.Fatalf("child %d: expected leaf %q, got %#v", i, text, tree.Node(ids[i]).Body)
		}
	}
	if tree.Node(ids[4]).Body.Kind() != KindRule {
		t.Fatalf("expected rule")
	}
}

func TestParse_VSpaceViewport(t *testing.T) {
	lines := []string{"@One", "%space 900"}
	tk, err := Parse(lines, ParseOptions{ViewportHeight: 1000}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tree := tk.Slides[0].Tree
	if tree.Node(tree.Root().Children[0]).Body.Kind() != KindVSpace {
		t.Fatalf("expected vspace with larger viewport")
	}
}

func TestParse_StylesAndImages(t *testing.T) {
	tk := mustParse(t, `@One
!dark
Head
[
!inner.png
# comment between image and its link
:Two
x
]
!outer.png
Go there
:Two.2
@Two
!Dark
y
`)
	one := tk.Slides[0]
	if one.Style.Name != "dark" {
		t.Fatalf("style = %q, want dark", one.Style.Name)
	}
	if len(one.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(one.Images))
	}
	if one.Images[0].Path != "inner.png" || one.Images[0].Hyperlink != "Two" {
		t.Fatalf("unexpected first image %+v", one.Images[0])
	}
	if one.Images[0].Pos.Known() {
		t.Fatalf("image position must be unknown after parsing")
	}

	tree := one.Tree
	sec := tree.Node(tree.Root().Children[0]).Body.(*Section)
	if len(sec.Images) != 1 || sec.Images[0] != one.Images[0] {
		t.Fatalf("inner image must be anchored at section")
	}
	if len(tree.Root().Images) != 1 || tree.Root().Images[0] != one.Images[1] {
		t.Fatalf("outer image must be anchored at slide")
	}
	leaf := tree.Node(tree.LastChild(tree.RootID())).Body.(*Leaf)
	if leaf.Hyperlink != "Two.2" {
		t.Fatalf("leaf hyperlink = %q", leaf.Hyperlink)
	}

	// style names are case sensitive, so this is an image
	two := tk.Slides[1]
	if two.Style.Name != "default" || len(two.Images) != 1 || two.Images[0].Path != "Dark" {
		t.Fatalf("unexpected second slide: style %q, images %d", two.Style.Name, len(two.Images))
	}
}

func TestParse_SectionHyperlink(t *testing.T) {
	tk := mustParse(t, "@One\nHead\n[\nx\n]\n:Two\n@Two\ny\n")
	tree := tk.Slides[0].Tree
	if sec := tree.Node(tree.Root().Children[0]).Body.(*Section); sec.Hyperlink != "Two" {
		t.Fatalf("section hyperlink = %q", sec.Hyperlink)
	}
}

func TestParse_Latex(t *testing.T) {
	tk := mustParse(t, "@One\n\\)\nx^2\n\n# kept\n\\\n\\\n\\frac{1}{2}\n\\\n")
	tree := tk.Slides[0].Tree
	ids := tree.Root().Children
	if len(ids) != 2 {
		t.Fatalf("expected 2 latex blocks, got %d", len(ids))
	}
	first := tree.Node(ids[0]).Body.(*Latex)
	if !first.Centred || strings.Join(first.Lines, "|") != "x^2||# kept" {
		t.Fatalf("unexpected first block %+v", first)
	}
	second := tree.Node(ids[1]).Body.(*Latex)
	if second.Centred || len(second.Lines) != 1 || second.Lines[0] != `\frac{1}{2}` {
		t.Fatalf("unexpected second block %+v", second)
	}
}

func TestParse_Headers(t *testing.T) {
	tk := mustParse(t, `@designsize = 800x600
@ canvascolour= dark grey
@ Spaced Title
x
@!pictures/a.png
`)
	if tk.DesignSize != (Size{Width: 800, Height: 600}) {
		t.Fatalf("design size = %s", tk.DesignSize)
	}
	if tk.CanvasColour != "dark grey" {
		t.Fatalf("canvas colour = %q", tk.CanvasColour)
	}
	if len(tk.Slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(tk.Slides))
	}
	if tk.Slides[0].Title() != "Spaced Title" {
		t.Fatalf("title = %q", tk.Slides[0].Title())
	}
	img := tk.Slides[1]
	if !img.IsImage() || img.ImageFile != "pictures/a.png" || img.Title() != "!pictures/a.png" {
		t.Fatalf("unexpected image slide %q %q", img.Title(), img.ImageFile)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		line   int
		msg    string
	}{
		{"too short", "@One", 0, "talk too short"},
		{"content before slide", "hello\n@One", 1, "content before first slide"},
		{"rule before slide", "--\n@One", 1, "content before first slide"},
		{"image before slide", "!pic.png\n@One", 1, "before first slide"},
		{"link before slide", ":One\n@One", 1, "before first slide"},
		{"section after close", "@One\nA\n[\nB\n]\n[\nC\n]", 6, "start-of-block"},
		{"section after header", "@One\n[\nx\n]", 2, "start-of-block"},
		{"section after section", "@One\nA\n[\n[\nx\n]\n]", 4, "start-of-block"},
		{"section after blank", "@One\nA\n\n[\nx\n]", 4, "start-of-block"},
		{"section after latex", "@One\n\\\nx\n\\\n[\ny\n]", 5, "start-of-block"},
		{"section after rule", "@One\nA\n--\n# c\n%space 10\n[", 6, "start-of-block"},
		{"empty block", "@One\nHead\n[\n]", 4, "empty block"},
		{"close outside block", "@One\nx\n]", 3, "not inside a block"},
		{"unterminated at header", "@One\nHead\n[\nx\n@Two\ny", 5, "unterminated block"},
		{"unterminated at end", "@One\nHead\n[\nx", 4, "unterminated block"},
		{"duplicate title", "@One\nx\n@Two\n@One\ny", 4, "duplicate slide title"},
		{"duplicate spaced title", "@One\n@ One", 2, "duplicate slide title"},
		{"title too short", "@One\n@x", 2, "slidename too short"},
		{"image name too short", "@One\n@!a.pn", 2, "image filename too short"},
		{"bang alone", "@One\n!", 2, "too short"},
		{"link without anchor", "@One\n:Two", 2, "no anchor"},
		{"link on rule", "@One\n--\n:Two", 3, "no anchor"},
		{"link on vspace", "@One\nHead\n[\nx\n]\n\n%space 10\n:Two", 8, "no anchor"},
		{"unfinished latex", "@One\n\\)\nx^2", 2, "unfinished latex"},
		{"improbable designsize", "@designsize=5x5\n@One", 1, "improbable designsize"},
		{"invalid designsize", "@designsize=100\n@One", 1, "invalid designsize"},
		{"missing option argument", "@canvascolour= \n@One", 1, "missing argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(scriptLines(tt.script), ParseOptions{Styles: testStyles(t)}, zaptest.NewLogger(t))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.msg)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if pe.Line != tt.line {
				t.Errorf("error line = %d, want %d (%v)", pe.Line, tt.line, err)
			}
			if !strings.Contains(pe.Msg, tt.msg) {
				t.Errorf("error %q does not mention %q", pe.Msg, tt.msg)
			}
		})
	}
}

func TestParse_OptionLikeTitle(t *testing.T) {
	tk := mustParse(t, "@designsize matters\nx\n")
	if tk.Slides[0].Title() != "designsize matters" || !tk.DesignSize.IsZero() {
		t.Fatalf("option name without '=' must be a title")
	}
}

func TestPeekDesignSize(t *testing.T) {
	sz, err := PeekDesignSize([]string{"# talk", "@canvascolour=", "@designsize=1280x720", "@One", "x"})
	if err != nil {
		t.Fatalf("PeekDesignSize: %v", err)
	}
	if sz != (Size{Width: 1280, Height: 720}) {
		t.Fatalf("size = %s", sz)
	}

	sz, err = PeekDesignSize([]string{"@One", "x"})
	if err != nil || !sz.IsZero() {
		t.Fatalf("expected zero size, got %s, %v", sz, err)
	}

	_, err = PeekDesignSize([]string{"@One", "@designsize=1x1"})
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Fatalf("expected parse error at line 2, got %v", err)
	}
}

func TestCardMask_String(t *testing.T) {
	if AllCards.String() != "all" {
		t.Fatalf("AllCards = %q", AllCards.String())
	}
	if m := CardMask(0b101); m.String() != "13" {
		t.Fatalf("mask = %q, want 13", m.String())
	}
	if CardMask(1).Has(0) || CardMask(1).Has(17) {
		t.Fatalf("out of range cards must not be included")
	}
}
