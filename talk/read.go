package talk

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Paths are file names derived from talk reference given on command line.
type Paths struct {
	Talk  string
	Graph string
	Latex string
}

// PathsFor derives talk script, position file and LaTeX cache directory
// names from reference. Reference may name any of them or have no extension
// at all.
func PathsFor(ref string) Paths {
	return Paths{
		Talk:  ReplaceExtension(ref, "talk"),
		Graph: ReplaceExtension(ref, "graph"),
		Latex: ReplaceExtension(ref, "latex"),
	}
}

// ReplaceExtension replaces extension of the last path element or appends
// one when there is none.
func ReplaceExtension(ref, ext string) string {
	dot := strings.LastIndexByte(ref, '.')
	if dot < 0 || dot < strings.LastIndexAny(ref, "/"+string(filepath.Separator)) {
		return ref + "." + ext
	}
	return ref[:dot+1] + ext
}

// LookupEncoding returns decoder for IANA character set name, empty name
// means UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown character set %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported character set %q", name)
	}
	return enc, nil
}

// ReadLines splits talk script into lines converting it to UTF-8 when
// encoding is specified. Line terminators are not kept, CR LF is accepted.
func ReadLines(r io.Reader, enc encoding.Encoding) ([]string, error) {
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}

	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return lines, nil
}

// ReadFile reads talk script from file using named character set.
func ReadFile(path, charset string, log *zap.Logger) ([]string, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open talk: %w", err)
	}
	defer f.Close()

	lines, err := ReadLines(f, enc)
	if err != nil {
		return nil, fmt.Errorf("unable to read talk %q: %w", path, err)
	}
	if enc != nil {
		n, _ := ianaindex.IANA.Name(enc)
		log.Debug("Talk decoded", zap.String("file", path), zap.String("charset", n), zap.Int("lines", len(lines)))
	}
	return lines, nil
}
