package talk

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when hyperlink target does not name any slide.
var ErrNotFound = errors.New("no such link")

// ParseError describes malformed talk script. Parse errors are always fatal
// for the reload which encountered them.
type ParseError struct {
	// Line is 1-based number of offending line, 0 when error is not tied to
	// a particular line.
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line <= 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
