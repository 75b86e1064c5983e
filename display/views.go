package display

import (
	"mtalk/talk"
)

// Views keeps current view of every slide of one talk generation. Views is
// not safe for concurrent use.
type Views struct {
	tk    *talk.Talk
	tex   LatexRenderer
	views map[*talk.Slide]*View
}

func NewViews(tk *talk.Talk, tex LatexRenderer) *Views {
	return &Views{
		tk:    tk,
		tex:   tex,
		views: make(map[*talk.Slide]*View, len(tk.Slides)),
	}
}

// Get returns view of slide at its current card flattening it when needed.
// Fold changes made directly on slide require Refresh.
func (v *Views) Get(sl *talk.Slide) (*View, error) {
	if view, ok := v.views[sl]; ok && view.Card == sl.Card {
		return view, nil
	}
	return v.Refresh(sl)
}

// Refresh replaces slide view with freshly flattened one.
func (v *Views) Refresh(sl *talk.Slide) (*View, error) {
	view, err := Flatten(v.tk, sl, sl.Card, v.tex)
	if err != nil {
		delete(v.views, sl)
		return nil, err
	}
	v.views[sl] = view
	return view, nil
}

// RefreshAll flattens every slide of the talk.
func (v *Views) RefreshAll() error {
	for _, sl := range v.tk.Slides {
		if _, err := v.Refresh(sl); err != nil {
			return err
		}
	}
	return nil
}

// Line returns display line by its 1-based number in slide view.
func (v *Views) Line(sl *talk.Slide, lineNum int) (*Line, bool) {
	view, err := v.Get(sl)
	if err != nil || lineNum < 1 || lineNum > len(view.Lines) {
		return nil, false
	}
	return &view.Lines[lineNum-1], true
}

// FoldRequest folds or unfolds section shown at lineNum. It reports whether
// the line was a section header.
func (v *Views) FoldRequest(sl *talk.Slide, lineNum int) (bool, error) {
	ln, ok := v.Line(sl, lineNum)
	if !ok || ln.Kind == Plain {
		return false, nil
	}
	if !sl.ToggleFold(ln.Source) {
		return false, nil
	}
	_, err := v.Refresh(sl)
	return true, err
}

// HyperlinkRequest returns resolved hyperlink target of the line at lineNum.
func (v *Views) HyperlinkRequest(sl *talk.Slide, lineNum int) (*talk.Slide, int, bool) {
	if sl.IsImage() {
		return nil, 0, false
	}
	ln, ok := v.Line(sl, lineNum)
	if !ok || ln.Link == nil {
		return nil, 0, false
	}
	return ln.Link, ln.LinkCard, true
}

// FoldAll folds every section of the slide and refreshes its view.
func (v *Views) FoldAll(sl *talk.Slide) error {
	sl.FoldAll()
	_, err := v.Refresh(sl)
	return err
}

// UnfoldAll unfolds every section of the slide and refreshes its view.
func (v *Views) UnfoldAll(sl *talk.Slide) error {
	sl.UnfoldAll()
	_, err := v.Refresh(sl)
	return err
}
