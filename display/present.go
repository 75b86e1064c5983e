package display

import (
	"mtalk/style"
)

// MaxBullet is the deepest bullet nesting allowed.
const MaxBullet = 3

// present interprets leading markup of text line:
//
//	^text   continuation of previous bullet
//	)text   centred
//	>text   heading, ">)" centres it
//	**text  bullet of given level, leading whitespace indents
func present(text string, st *style.Style, out *Line) error {
	out.Height = st.LineSpacing

	s := text
	switch {
	case s == "":
	case s[0] == '^':
		out.Bullet = -1
		s = skipBlanks(s[1:])
	case s[0] == ')':
		out.Centred = true
		s = skipBlanks(s[1:])
	case s[0] == '>':
		out.Heading = true
		out.Height = st.HeadingHeight()
		s = s[1:]
		if s != "" && s[0] == ')' {
			out.Centred = true
			s = s[1:]
		}
		s = skipBlanks(s)
	default:
		s = out.indent(s)
		for s != "" && s[0] == '*' {
			out.Bullet++
			s = s[1:]
		}
		s = out.indent(s)
		if out.Bullet > MaxBullet {
			return &PresentError{Text: text, Msg: "too many nested bullets"}
		}
	}
	out.Text = s
	return nil
}

// indent converts leading whitespace into prespace, tab counts as 3.
func (out *Line) indent(s string) string {
	for s != "" {
		switch s[0] {
		case ' ':
			out.Prespace++
		case '\t':
			out.Prespace += 3
		default:
			return s
		}
		s = s[1:]
	}
	return s
}

func skipBlanks(s string) string {
	for s != "" && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}
