// Package latex turns LaTeX blocks of the talk into PNG bitmaps using external
// latex, dvips and convert programs. Generated bitmaps are cached on disk
// under names derived from block content hash.
package latex

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"mtalk/config"
	"mtalk/style"
)

const hashModulus = 999983

// Hash is content hash of LaTeX block. It is stable across runs since it
// names cached bitmaps.
func Hash(lines []string) int {
	h, count := 0, 0
	for _, line := range lines {
		count += len(line) + 1
		for i := 0; i < len(line); i++ {
			h <<= 7
			h += int(line[i] & 0x7F)
			h %= hashModulus
		}
		h <<= 4
		h += '\n'
		h %= hashModulus
	}
	return h*1000 + count%1000
}

// BaseName returns cache file name (without extension) for hash.
func BaseName(hash int) string {
	return fmt.Sprintf("%09d", hash)
}

// Bitmap is rendered LaTeX block.
type Bitmap struct {
	Hash   int
	Path   string
	Width  int
	Height int
}

// Renderer generates and caches bitmaps. It is safe for concurrent use.
type Renderer struct {
	dir  string
	cfg  config.LatexConfig
	log  *zap.Logger
	mu   sync.Mutex
	memo map[memoKey]*Bitmap
}

type memoKey struct {
	hash  int
	style string
}

// NewRenderer creates renderer keeping bitmaps in dir, directory is created
// on first use.
func NewRenderer(dir string, cfg config.LatexConfig, log *zap.Logger) *Renderer {
	return &Renderer{
		dir:  dir,
		cfg:  cfg,
		log:  log.Named("latex"),
		memo: make(map[memoKey]*Bitmap),
	}
}

// Dir returns bitmap cache directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render returns bitmap for LaTeX block rendered with style. Bitmap is taken
// from disk cache when present unless forced regeneration is configured.
func (r *Renderer) Render(lines []string, st *style.Style) (*Bitmap, error) {
	h := Hash(lines)
	key := memoKey{hash: h, style: st.Name}

	r.mu.Lock()
	defer r.mu.Unlock()

	if bm, ok := r.memo[key]; ok {
		return bm, nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot make latex directory: %w", err)
	}

	png := filepath.Join(r.dir, BaseName(h)+".png")
	if _, err := os.Stat(png); err != nil || r.cfg.Force {
		if err := r.generate(lines, st, h, png); err != nil {
			return nil, err
		}
	} else {
		r.log.Debug("Using cached bitmap", zap.String("file", png))
	}

	bm, err := probe(png)
	if err != nil {
		return nil, err
	}
	bm.Hash = h
	r.memo[key] = bm
	return bm, nil
}

// generate runs external pipeline in scratch directory and moves resulting
// bitmap to its cache location.
func (r *Renderer) generate(lines []string, st *style.Style, h int, png string) error {
	src, err := Document(lines, st)
	if err != nil {
		return err
	}

	scratch := filepath.Join(r.dir, "tmp-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("cannot make latex scratch directory: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(scratch); rerr != nil {
			r.log.Warn("Unable to remove latex scratch directory", zap.String("dir", scratch), zap.Error(rerr))
		}
	}()

	base := BaseName(h)
	if err := os.WriteFile(filepath.Join(scratch, base+".tex"), src, 0o644); err != nil {
		return fmt.Errorf("unable to write latex source: %w", err)
	}

	r.log.Debug("Generating bitmap", zap.String("file", png), zap.Int("lines", len(lines)))

	var ee *exec.ExitError
	switch err := r.run(scratch, r.cfg.LatexCmd, "-interaction=batchmode", base+".tex"); {
	case errors.As(err, &ee):
		// latex complains about many things and still produces usable output
		r.log.Warn("LaTeX errors in block, proceeding anyway", zap.Int("code", ee.ExitCode()), zap.Strings("source", lines))
	case err != nil:
		return fmt.Errorf("failed to invoke latex: %w", err)
	}

	if err := r.run(scratch, r.cfg.DvipsCmd, "-E", "-q", "-o", base+".ps", base+".dvi"); err != nil {
		return fmt.Errorf("failed to invoke dvips: %w", err)
	}

	if err := r.run(scratch, r.cfg.ConvertCmd,
		"-units", "PixelsPerInch",
		"-density", strconv.Itoa(st.LatexScale),
		"-transparent", hexColour(st.Background),
		base+".ps", base+".png",
	); err != nil {
		return fmt.Errorf("failed to invoke convert: %w", err)
	}

	if err := os.Rename(filepath.Join(scratch, base+".png"), png); err != nil {
		return fmt.Errorf("unable to store bitmap: %w", err)
	}
	return nil
}

func (r *Renderer) run(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			r.log.Debug("Command output", zap.String("cmd", name), zap.String("output", strings.TrimSpace(string(out))))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// probe checks that file is PNG image and gets its dimensions.
func probe(path string) (*Bitmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read bitmap: %w", err)
	}
	if !filetype.Is(data, "png") {
		return nil, fmt.Errorf("bitmap %s is not a PNG image", path)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode bitmap %s: %w", path, err)
	}
	b := img.Bounds()
	return &Bitmap{Path: path, Width: b.Dx(), Height: b.Dy()}, nil
}
