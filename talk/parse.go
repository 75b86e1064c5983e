// Package talk keeps parsed talk script: slides with their content trees,
// global options and navigation state (cards, folds, positions).
package talk

import (
	"strings"

	"go.uber.org/zap"

	"mtalk/style"
)

// DefaultViewportHeight is used to validate "%space" directives when display
// geometry is not known.
const DefaultViewportHeight = 768

// StyleResolver resolves "!name" style directives.
type StyleResolver interface {
	Default() *style.Style
	Lookup(name string) (*style.Style, error)
}

// ParseOptions carries external state parser depends on.
type ParseOptions struct {
	Styles StyleResolver
	// ViewportHeight is screen height, "%space" directives must be below it.
	ViewportHeight int
}

type parser struct {
	opts ParseOptions
	log  *zap.Logger

	talk  *Talk
	slide *Slide
	ctx   NodeID
	mask  CardMask

	// prev is first character of previous non-comment line, 0 for blank
	// line.
	prev byte
	// images declared on current and previous non-comment lines, hyperlink
	// directive attaches to the latter.
	imgHere, imgAbove *SubImage

	lines []string
	num   int
}

// Parse builds talk from script lines. Any malformed input results in
// *ParseError and no talk.
func Parse(lines []string, opts ParseOptions, log *zap.Logger) (*Talk, error) {
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	if len(lines) < 2 {
		return nil, &ParseError{Msg: "talk too short"}
	}

	p := &parser{
		opts:  opts,
		log:   log.Named("parse"),
		talk:  &Talk{byTitle: make(map[string]*Slide)},
		mask:  AllCards,
		prev:  '#',
		lines: lines,
	}
	for p.num = 0; p.num < len(p.lines); p.num++ {
		if err := p.line(p.lines[p.num]); err != nil {
			return nil, withLine(err, p.num+1)
		}
	}
	p.num = len(lines) - 1
	if err := p.closeSlide(); err != nil {
		return nil, err
	}

	p.log.Debug("Talk parsed", zap.Int("lines", len(lines)), zap.Int("slides", len(p.talk.Slides)))
	return p.talk, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return parseErrorf(p.num+1, format, args...)
}

func (p *parser) line(raw string) error {
	if strings.HasPrefix(raw, "#") {
		return nil
	}

	line := raw
	if strings.Trim(raw, " \t") == "" {
		line = ""
	}

	var err error
	switch {
	case line == "":
		p.blank()
	case line[0] == '@':
		err = p.header(line)
	case line == "[":
		err = p.openSection()
	case line == "]":
		err = p.closeSection()
	case strings.HasPrefix(line, "%space "):
		err = p.vspace(line)
	case line == "--":
		err = p.appendNode(&Rule{})
	case line[0] == '!':
		err = p.bang(line)
	case line[0] == ':':
		err = p.hyperlink(line)
	case line == `\` || line == `\)`:
		err = p.latex(line == `\)`)
		line = `\`
	default:
		err = p.appendNode(&Leaf{Text: line})
	}
	if err != nil {
		return err
	}

	if line == "" {
		p.prev = 0
	} else {
		p.prev = line[0]
	}
	p.imgAbove, p.imgHere = p.imgHere, nil
	return nil
}

func (p *parser) appendNode(body Body) error {
	if p.slide == nil {
		return p.errorf("content before first slide")
	}
	p.slide.Tree.append(p.ctx, p.mask, body)
	return nil
}

func (p *parser) blank() {
	// blank line directly after slide header or before first slide is ignored
	if p.slide == nil || p.prev == '@' {
		return
	}
	p.slide.Tree.append(p.ctx, p.mask, &Leaf{})
}

// trimTrailingBlank removes blank line ending the slide.
func (p *parser) trimTrailingBlank() {
	if p.slide == nil || p.prev != 0 {
		return
	}
	tree := p.slide.Tree
	last := tree.LastChild(p.ctx)
	if last == NoNode {
		return
	}
	if leaf, ok := tree.Node(last).Body.(*Leaf); ok && leaf.Text == "" {
		tree.dropLastChild(p.ctx)
	}
}

func (p *parser) closeSlide() error {
	p.trimTrailingBlank()
	if p.slide != nil && p.ctx != p.slide.Tree.RootID() {
		return p.errorf("unterminated block in slide %q", p.slide.Title())
	}
	return nil
}

func (p *parser) header(line string) error {
	p.trimTrailingBlank()

	matched, err := p.talk.applyOption(line[1:], false)
	if err != nil {
		return err
	}
	if matched {
		return nil
	}

	if p.slide != nil && p.ctx != p.slide.Tree.RootID() {
		return p.errorf("unterminated block in slide %q", p.slide.Title())
	}
	if len(line) < 3 {
		return p.errorf("slidename too short")
	}

	title := line[1:]
	if line[1] == ' ' {
		title = line[2:]
	}
	if _, exists := p.talk.byTitle[title]; exists {
		return p.errorf("duplicate slide title %q", title)
	}

	sl := &Slide{
		Tree:     newTree(title),
		DeckSize: 1,
		Card:     1,
		Pos:      Unknown(),
	}
	if p.opts.Styles != nil {
		sl.Style = p.opts.Styles.Default()
	}
	if line[1] == '!' {
		if len(line) < 7 {
			return p.errorf("image filename too short")
		}
		sl.ImageFile = line[2:]
	}

	p.talk.Slides = append(p.talk.Slides, sl)
	p.talk.byTitle[title] = sl
	p.slide = sl
	p.ctx = sl.Tree.RootID()
	p.mask = AllCards

	p.log.Debug("Slide", zap.Int("line", p.num+1), zap.String("title", title), zap.Bool("image", sl.IsImage()))
	return nil
}

func (p *parser) openSection() error {
	if p.slide == nil {
		return p.errorf("content before first slide")
	}
	switch p.prev {
	case '[', ']', '@', 0:
		return p.errorf("start-of-block does not follow plain text")
	}

	tree := p.slide.Tree
	last := tree.LastChild(p.ctx)
	if last == NoNode {
		return p.errorf("start-of-block does not follow plain text")
	}
	node := tree.Node(last)
	leaf, ok := node.Body.(*Leaf)
	if !ok {
		return p.errorf("start-of-block does not follow plain text")
	}
	node.Body = &Section{Heading: leaf.Text, Hyperlink: leaf.Hyperlink, Folded: Folded}
	p.ctx = last
	return nil
}

func (p *parser) closeSection() error {
	if p.slide == nil {
		return p.errorf("content before first slide")
	}
	tree := p.slide.Tree
	parent := tree.Node(p.ctx).Parent
	if parent == NoNode {
		return p.errorf("end-of-block encountered whilst not inside a block")
	}
	if len(tree.Children(p.ctx)) == 0 {
		return p.errorf("empty block")
	}
	p.ctx = parent
	return nil
}

func (p *parser) vspace(line string) error {
	n := leadingInt(line[len("%space "):])
	if n <= 0 || n >= p.opts.ViewportHeight {
		// not a directive, keep it as text
		return p.appendNode(&Leaf{Text: line})
	}
	return p.appendNode(&VSpace{Height: n})
}

// bang handles style, card mask and image directives, in that order.
func (p *parser) bang(line string) error {
	if p.slide == nil {
		return p.errorf("image or style directive before first slide")
	}
	if len(line) < 2 {
		return p.errorf("image filename or style name too short")
	}

	if p.opts.Styles != nil {
		if st, err := p.opts.Styles.Lookup(line[1:]); err == nil {
			p.slide.Style = st
			return nil
		}
	}

	if line == "!!" {
		p.mask = AllCards
		return nil
	}

	if mask, maxCard, ok := parseMask(line[1:]); ok {
		p.mask = mask
		p.slide.DeckSize = max(p.slide.DeckSize, maxCard)
		return nil
	}

	img := &SubImage{Path: line[1:], Mask: p.mask, Pos: Unknown()}
	p.slide.Images = append(p.slide.Images, img)
	p.slide.Tree.addImage(p.ctx, img)
	p.imgHere = img
	return nil
}

// parseMask accepts digits 1 to 9 separated by optional whitespace and
// returns resulting mask with the highest card referenced.
func parseMask(s string) (CardMask, int, bool) {
	var mask CardMask
	maxCard := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '1' && c <= '9':
			card := int(c - '0')
			mask |= 1 << (card - 1)
			maxCard = max(maxCard, card)
		case c == ' ' || c == '\t':
		default:
			return 0, 0, false
		}
	}
	return mask, maxCard, maxCard > 0
}

func (p *parser) hyperlink(line string) error {
	if p.slide == nil {
		return p.errorf("hyperlink before first slide")
	}
	target := line[1:]
	if p.imgAbove != nil {
		p.imgAbove.Hyperlink = target
		return nil
	}

	tree := p.slide.Tree
	last := tree.LastChild(p.ctx)
	if last == NoNode {
		return p.errorf("hyperlink with no anchor line")
	}
	switch b := tree.Node(last).Body.(type) {
	case *Leaf:
		b.Hyperlink = target
	case *Section:
		b.Hyperlink = target
	default:
		return p.errorf("hyperlink with no anchor line")
	}
	return nil
}

// latex collects verbatim lines up to terminating "\" line.
func (p *parser) latex(centred bool) error {
	if p.slide == nil {
		return p.errorf("content before first slide")
	}
	start := p.num
	block := &Latex{Centred: centred}
	for {
		p.num++
		if p.num == len(p.lines) {
			return parseErrorf(start+1, "unfinished latex section")
		}
		if p.lines[p.num] == `\` {
			break
		}
		block.Lines = append(block.Lines, p.lines[p.num])
	}
	p.slide.Tree.append(p.ctx, p.mask, block)
	return nil
}
