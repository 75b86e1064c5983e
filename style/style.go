// Package style keeps named presentation styles a slide may select with
// "!name" directive. Only metrics which affect display line heights and LaTeX
// generation are kept here, fonts and colours of the rendered text belong to
// the renderer.
package style

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"mtalk/config"
)

var ErrUnknownStyle = errors.New("unknown style")

// Style is immutable after registry is built and shared by all slides using it.
type Style struct {
	Name string

	TextSize        int
	TitleSize       int
	LineSpacing     int
	HeadSpaceAbove  int
	HeadSpaceBelow  int
	RuleHeight      int
	RuleSpaceAbove  int
	RuleSpaceBelow  int
	LatexSpaceAbove int
	LatexSpaceBelow int
	LatexWidth      int
	LatexScale      int
	LatexStretch    int

	Foreground color.RGBA
	Background color.RGBA

	LatexPreInclude []string
	LatexInclude    []string
}

// HeadingHeight is height of the display line produced by ">" heading.
func (s *Style) HeadingHeight() int {
	return s.LineSpacing + s.TitleSize - s.TextSize + s.HeadSpaceAbove + s.HeadSpaceBelow
}

// RuleBlockHeight is height of the display line produced by "--" rule.
func (s *Style) RuleBlockHeight() int {
	return s.RuleHeight + s.RuleSpaceAbove + s.RuleSpaceBelow
}

// LatexPageWidth is width of LaTeX page in inches.
func (s *Style) LatexPageWidth() float64 {
	return float64(s.LatexWidth) / float64(s.LatexScale)
}

// Registry holds styles in definition order, first one is default.
type Registry struct {
	styles []*Style
	byName map[string]*Style
}

// NewRegistry builds styles from configuration resolving inheritance. Style
// may inherit only from style defined before it, styles without explicit
// parent inherit from default one.
func NewRegistry(confs []config.StyleConfig) (*Registry, error) {
	if len(confs) == 0 {
		return nil, errors.New("no default style")
	}

	r := &Registry{byName: make(map[string]*Style, len(confs))}
	for i, conf := range confs {
		if _, exists := r.byName[conf.Name]; exists {
			return nil, fmt.Errorf("duplicate style name %q", conf.Name)
		}

		var (
			st  *Style
			err error
		)
		if i == 0 {
			if len(conf.Inherit) > 0 {
				return nil, fmt.Errorf("default style %q cannot inherit", conf.Name)
			}
			st, err = newBaseStyle(conf)
		} else {
			parent := r.styles[0]
			if len(conf.Inherit) > 0 {
				if parent = r.byName[conf.Inherit]; parent == nil {
					return nil, fmt.Errorf("style %q inherits from %q: %w", conf.Name, conf.Inherit, ErrUnknownStyle)
				}
			}
			st, err = newDerivedStyle(conf, parent)
		}
		if err != nil {
			return nil, fmt.Errorf("style %q: %w", conf.Name, err)
		}
		r.styles = append(r.styles, st)
		r.byName[st.Name] = st
	}
	return r, nil
}

// Default returns default style every slide starts with.
func (r *Registry) Default() *Style {
	return r.styles[0]
}

// Lookup finds style by exact (case sensitive) name.
func (r *Registry) Lookup(name string) (*Style, error) {
	if st, ok := r.byName[name]; ok {
		return st, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// Names returns style names in definition order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.styles))
	for _, st := range r.styles {
		names = append(names, st.Name)
	}
	return names
}

func newBaseStyle(conf config.StyleConfig) (*Style, error) {
	st := &Style{
		Name:       conf.Name,
		Foreground: color.RGBA{A: 0xFF},
		Background: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	}
	var missing []string
	for _, m := range metrics(st, &conf) {
		if m.src == nil {
			missing = append(missing, m.name)
			continue
		}
		*m.dst = *m.src
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("default style must define %s", strings.Join(missing, ", "))
	}
	if err := applyColours(st, &conf); err != nil {
		return nil, err
	}
	st.LatexPreInclude = conf.LatexPreInclude
	st.LatexInclude = conf.LatexInclude
	return st, nil
}

func newDerivedStyle(conf config.StyleConfig, parent *Style) (*Style, error) {
	st := *parent
	st.Name = conf.Name
	for _, m := range metrics(&st, &conf) {
		if m.src != nil {
			*m.dst = *m.src
		}
	}
	if err := applyColours(&st, &conf); err != nil {
		return nil, err
	}
	if conf.LatexPreInclude != nil {
		st.LatexPreInclude = conf.LatexPreInclude
	}
	if conf.LatexInclude != nil {
		st.LatexInclude = conf.LatexInclude
	}
	return &st, nil
}

type metric struct {
	name string
	dst  *int
	src  *int
}

func metrics(st *Style, conf *config.StyleConfig) []metric {
	return []metric{
		{"text_size", &st.TextSize, conf.TextSize},
		{"title_size", &st.TitleSize, conf.TitleSize},
		{"line_spacing", &st.LineSpacing, conf.LineSpacing},
		{"head_space_above", &st.HeadSpaceAbove, conf.HeadSpaceAbove},
		{"head_space_below", &st.HeadSpaceBelow, conf.HeadSpaceBelow},
		{"rule_height", &st.RuleHeight, conf.RuleHeight},
		{"rule_space_above", &st.RuleSpaceAbove, conf.RuleSpaceAbove},
		{"rule_space_below", &st.RuleSpaceBelow, conf.RuleSpaceBelow},
		{"latex_space_above", &st.LatexSpaceAbove, conf.LatexSpaceAbove},
		{"latex_space_below", &st.LatexSpaceBelow, conf.LatexSpaceBelow},
		{"latex_width", &st.LatexWidth, conf.LatexWidth},
		{"latex_scale", &st.LatexScale, conf.LatexScale},
		{"latex_stretch", &st.LatexStretch, conf.LatexStretch},
	}
}

func applyColours(st *Style, conf *config.StyleConfig) (err error) {
	if len(conf.Foreground) > 0 {
		if st.Foreground, err = parseHexColour(conf.Foreground); err != nil {
			return fmt.Errorf("fg: %w", err)
		}
	}
	if len(conf.Background) > 0 {
		if st.Background, err = parseHexColour(conf.Background); err != nil {
			return fmt.Errorf("bg: %w", err)
		}
	}
	return nil
}

// parseHexColour accepts #rgb and #rrggbb forms.
func parseHexColour(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.RGBA{}, fmt.Errorf("colour %q must start with #", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("malformed colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("malformed colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
