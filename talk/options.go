package talk

import (
	"strings"
)

const (
	optDesignSize   = "designsize"
	optCanvasColour = "canvascolour"

	minDesignDim = 10
	maxDesignDim = 99999
)

// matchOption recognizes "name = value" global option in the text following
// '@'. When preparsing only design size is recognized. Matched is false when
// line should be treated as slide header.
func matchOption(s string, preparse bool) (name, value string, matched bool, err error) {
	names := []string{optDesignSize, optCanvasColour}
	if preparse {
		names = names[:1]
	}

	s = strings.TrimLeft(s, " \t")
	for _, name := range names {
		rest, found := strings.CutPrefix(s, name)
		if !found {
			continue
		}
		rest = strings.TrimLeft(rest, " \t")
		if !strings.HasPrefix(rest, "=") {
			return "", "", false, nil
		}
		rest = strings.TrimLeft(rest[1:], " \t")
		if rest == "" {
			return name, "", true, &ParseError{Msg: "missing argument to global option " + name}
		}
		return name, rest, true, nil
	}
	return "", "", false, nil
}

func parseDesignSize(value string) (Size, error) {
	parts := strings.Split(value, "x")
	if len(parts) != 2 {
		return Size{}, &ParseError{Msg: "invalid designsize"}
	}
	sz := Size{Width: leadingInt(parts[0]), Height: leadingInt(parts[1])}
	if sz.Width < minDesignDim || sz.Height < minDesignDim || sz.Width > maxDesignDim || sz.Height > maxDesignDim {
		return Size{}, &ParseError{Msg: "improbable designsize " + value}
	}
	return sz, nil
}

// applyOption consumes global option line, matched is false when line is not
// an option.
func (t *Talk) applyOption(s string, preparse bool) (bool, error) {
	name, value, matched, err := matchOption(s, preparse)
	if !matched || err != nil {
		return matched, err
	}
	switch name {
	case optDesignSize:
		sz, err := parseDesignSize(value)
		if err != nil {
			return true, err
		}
		t.DesignSize = sz
	case optCanvasColour:
		t.CanvasColour = value
	}
	return true, nil
}

// PeekDesignSize scans slide header lines for "designsize" option. Design
// size is needed before parsing to compute viewport height. Zero size is
// returned when talk does not specify one.
func PeekDesignSize(lines []string) (Size, error) {
	var t Talk
	for i, line := range lines {
		if !strings.HasPrefix(line, "@") {
			continue
		}
		if _, err := t.applyOption(line[1:], true); err != nil {
			return Size{}, withLine(err, i+1)
		}
	}
	return t.DesignSize, nil
}

// leadingInt converts leading decimal number of the string ignoring anything
// after it, returns 0 when there is none.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > 1<<30 {
			break
		}
	}
	if neg {
		return -n
	}
	return n
}

func withLine(err error, line int) error {
	if pe, ok := err.(*ParseError); ok && pe.Line == 0 {
		pe.Line = line
	}
	return err
}
