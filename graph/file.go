// Package graph keeps slide and sub-image canvas positions in the position
// ("graph") file and reconciles saved positions with freshly parsed talk.
package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mtalk/talk"
)

// Kind of position record.
type Kind byte

const (
	SlideRecord Kind = '@'
	ImageRecord Kind = '+'
)

// Record is a single line of position file. Slide coordinates are kept in
// screen units, image coordinates are raw.
type Record struct {
	Kind  Kind
	X, Y  int
	Title string
}

// Pos returns record coordinates.
func (r Record) Pos() talk.Point {
	return talk.Point{X: r.X, Y: r.Y}
}

// File is ordered list of records: every slide record is followed by records
// of its sub-images in declaration order.
type File struct {
	Records []Record
	// Skipped counts malformed lines dropped on load, file needs rewriting
	// when it is not zero.
	Skipped int
}

func (f *File) Len() int {
	return len(f.Records)
}

func (f *File) add(kind Kind, title string, pos talk.Point) {
	f.Records = append(f.Records, Record{Kind: kind, X: pos.X, Y: pos.Y, Title: title})
}

// Parse reads position file converting slide coordinates to screen units.
// Lines which do not start with record kind are ignored, malformed records are
// skipped with a warning. Only read errors are returned.
func Parse(r io.Reader, sc Scale, log *zap.Logger) (*File, error) {
	f := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for num := 1; scanner.Scan(); num++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || (line[0] != byte(SlideRecord) && line[0] != byte(ImageRecord)) {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			log.Warn("Skipping position record", zap.Int("line", num), zap.Error(err))
			f.Skipped++
			continue
		}
		if rec.Kind == SlideRecord {
			rec.X, rec.Y = sc.ToScreen(rec.X), sc.ToScreen(rec.Y)
		}
		f.Records = append(f.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// parseRecord accepts "KIND X <ws> Y <ws> TITLE", whitespace between fields
// may be of any kind and length.
func parseRecord(line string) (Record, error) {
	rec := Record{Kind: Kind(line[0])}
	rest := line[1:]

	var ok bool
	if rec.X, rest, ok = scanInt(rest); !ok {
		return rec, fmt.Errorf("malformed record %q", line)
	}
	if rec.Y, rest, ok = scanInt(rest); !ok {
		return rec, fmt.Errorf("malformed record %q", line)
	}
	rec.Title = strings.TrimLeft(rest, " \t")
	return rec, nil
}

func scanInt(s string) (int, string, bool) {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, s, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, s, false
	}
	return v, s[end:], true
}

// Write outputs records converting slide coordinates to design units.
func (f *File) Write(w io.Writer, sc Scale) error {
	bw := bufio.NewWriter(w)
	for _, rec := range f.Records {
		x, y := rec.X, rec.Y
		if rec.Kind == SlideRecord {
			x, y = sc.ToDesign(x), sc.ToDesign(y)
		}
		if _, err := fmt.Fprintf(bw, "%c%d\t%d\t%s\n", rec.Kind, x, y, rec.Title); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads position file. Absent file is the same as empty one.
func Load(path string, sc Scale, log *zap.Logger) (*File, error) {
	fd, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open position file: %w", err)
	}
	defer fd.Close()

	f, err := Parse(fd, sc, log.With(zap.String("file", path)))
	if err != nil {
		return nil, fmt.Errorf("position file %s: %w", path, err)
	}
	return f, nil
}

// Save replaces position file atomically.
func Save(path string, f *File, sc Scale) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("unable to create position file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to create position file: %w", err)
	}
	if err = f.Write(tmp, sc); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write position file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("unable to write position file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("unable to replace position file: %w", err)
	}
	return nil
}

// Fill generates records for every slide and sub-image of the talk in
// document order. Slides showing later cards are stored at their first card
// position.
func Fill(tk *talk.Talk, edge int) *File {
	f := &File{}
	for _, sl := range tk.Slides {
		f.add(SlideRecord, sl.Title(), sl.FirstCardPos(edge))
		for _, img := range sl.Images {
			f.add(ImageRecord, img.Path, img.Pos)
		}
	}
	return f
}
