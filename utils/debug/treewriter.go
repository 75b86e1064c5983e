// Package debug has helpers producing human readable dumps of parsed talks.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines, one level of depth per indent unit.
type TreeWriter struct {
	w      *strings.Builder
	indent string
}

func NewTreeWriter() *TreeWriter {
	return NewTreeWriterIndent("  ")
}

// NewTreeWriterIndent allows to change indentation unit, talk dumps use
// three spaces to stay readable next to the script source.
func NewTreeWriterIndent(indent string) *TreeWriter {
	return &TreeWriter{
		w:      &strings.Builder{},
		indent: indent,
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) pad(depth int) {
	for range depth {
		tw.w.WriteString(tw.indent)
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock outputs labeled value quoting it so control characters and
// surrounding whitespace are visible.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Verbatim outputs label followed by every value on its own line one level deeper.
func (tw *TreeWriter) Verbatim(depth int, label string, values []string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(":\n")
	for _, v := range values {
		tw.pad(depth + 1)
		tw.w.WriteString(encodeText(v))
		tw.w.WriteByte('\n')
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return `""`
	}
	return strconv.Quote(raw)
}
