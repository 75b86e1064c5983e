package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mtalk/display"
	"mtalk/graph"
	"mtalk/latex"
	"mtalk/reload"
	"mtalk/state"
	"mtalk/talk"
)

func talkArg(env *state.LocalEnv, cmd *cli.Command) (talk.Paths, error) {
	if cmd.Args().Len() == 0 {
		return talk.Paths{}, errors.New("talk reference is required")
	}
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many talks", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	paths := talk.PathsFor(cmd.Args().Get(0))

	// archived when report is closed, so latest versions get there
	env.Rpt.Store("talk/"+filepath.Base(paths.Talk), paths.Talk)
	env.Rpt.Store("talk/"+filepath.Base(paths.Graph), paths.Graph)
	return paths, nil
}

// storeSlides puts per slide dumps into debug report.
func storeSlides(env *state.LocalEnv, dir string, tk *talk.Talk, views *display.Views) {
	if env.Rpt == nil {
		return
	}
	for i, sl := range tk.Slides {
		name := fmt.Sprintf("%s/%03d-%s.txt", dir, i+1, slug.Make(sl.Title()))
		data := sl.String()
		if views != nil {
			if view, err := views.Get(sl); err == nil {
				data += view.String()
			}
		}
		env.Rpt.StoreData(name, []byte(data))
	}
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	paths, err := talkArg(env, cmd)
	if err != nil {
		return err
	}
	tk, res, err := reload.Load(paths, env)
	if err != nil {
		return err
	}

	tex := latex.NewRenderer(paths.Latex, env.Cfg.Latex, env.Log)
	var cards, lines int
	for _, sl := range tk.Slides {
		for card := 1; card <= sl.DeckSize; card++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			view, err := display.Flatten(tk, sl, card, tex)
			if err != nil {
				return fmt.Errorf("slide %q card %d: %w", sl.Title(), card, err)
			}
			cards++
			lines += len(view.Lines)
		}
	}
	storeSlides(env, "check", tk, nil)

	broken := brokenLinks(tk)
	for _, msg := range broken {
		env.Log.Warn("Hyperlink target not found", zap.String("link", msg))
	}

	images := imageFiles(tk, filepath.Dir(paths.Talk))
	var problems error
	for _, path := range images {
		problems = multierr.Append(problems, checkImage(path))
	}
	if problems != nil {
		errs := multierr.Errors(problems)
		for _, err := range errs {
			env.Log.Warn("Bad image", zap.Error(err))
		}
		return fmt.Errorf("talk %s: %d bad image(s)", paths.Talk, len(errs))
	}

	env.Log.Info("Talk checked",
		zap.String("talk", paths.Talk),
		zap.Int("slides", len(tk.Slides)),
		zap.Int("cards", cards),
		zap.Int("lines", lines),
		zap.Int("images", len(images)),
		zap.Int("broken links", len(broken)),
		zap.Stringer("screen", res.Screen))
	return nil
}

// brokenLinks lists hyperlinks of lines, sections and sub-images which do not
// resolve to any slide, in document order.
func brokenLinks(tk *talk.Talk) []string {
	var broken []string
	check := func(sl *talk.Slide, target string) {
		if target == "" {
			return
		}
		if _, _, err := tk.Resolve(target); err != nil {
			broken = append(broken, fmt.Sprintf("slide %q: %v", sl.Title(), err))
		}
	}
	for _, sl := range tk.Slides {
		sl.Tree.Walk(func(id talk.NodeID, _ int) {
			switch b := sl.Tree.Node(id).Body.(type) {
			case *talk.Leaf:
				check(sl, b.Hyperlink)
			case *talk.Section:
				check(sl, b.Hyperlink)
			}
		})
		for _, img := range sl.Images {
			check(sl, img.Hyperlink)
		}
	}
	return broken
}

// imageFiles lists unique image files talk refers to, relative names are
// resolved against talk directory.
func imageFiles(tk *talk.Talk, base string) []string {
	seen := make(map[string]struct{})
	add := func(name string) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(base, name)
		}
		seen[name] = struct{}{}
	}
	for _, sl := range tk.Slides {
		if sl.IsImage() {
			add(sl.ImageFile)
		}
		for _, img := range sl.Images {
			add(img.Path)
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

func checkImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// enough to recognize any supported signature
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("unable to read %s: %w", path, err)
	}
	if !filetype.IsImage(head[:n]) {
		return fmt.Errorf("%s is not an image", path)
	}
	return nil
}

func runDump(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	paths, err := talkArg(env, cmd)
	if err != nil {
		return err
	}
	tk, res, err := reload.Load(paths, env)
	if err != nil {
		return err
	}

	card := int(cmd.Int("card"))
	if card < 1 {
		return fmt.Errorf("invalid card number %d", card)
	}
	for _, sl := range tk.Slides {
		if err := sl.GotoCard(min(card, sl.DeckSize), res.CardEdge); err != nil {
			return err
		}
		if cmd.Bool("unfold") {
			sl.UnfoldAll()
		}
	}

	out := os.Stdout
	if _, err := io.WriteString(out, tk.String()); err != nil {
		return err
	}

	var views *display.Views
	if cmd.Bool("lines") {
		views = display.NewViews(tk, nil)
		for _, sl := range tk.Slides {
			view, err := views.Get(sl)
			if err != nil {
				return fmt.Errorf("slide %q: %w", sl.Title(), err)
			}
			if _, err := fmt.Fprintf(out, "Slide %q\n%s", sl.Title(), view); err != nil {
				return err
			}
		}
	}
	storeSlides(env, "dump", tk, views)
	return nil
}

func runPositions(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	paths, err := talkArg(env, cmd)
	if err != nil {
		return err
	}
	tk, res, err := reload.Load(paths, env)
	if err != nil {
		return err
	}
	result, err := graph.Sync(paths.Graph, tk, res, env.Log)
	if err != nil {
		return err
	}

	if result.FastPath {
		env.Log.Info("Position file is up to date", zap.String("file", paths.Graph))
		return nil
	}
	out := os.Stdout
	for _, r := range result.Renamed {
		fmt.Fprintf(out, "renamed\t%q -> %q\n", r.From, r.To)
	}
	for _, title := range result.Added {
		fmt.Fprintf(out, "added\t%q\n", title)
	}
	for _, title := range result.Dropped {
		fmt.Fprintf(out, "dropped\t%q\n", title)
	}
	env.Log.Info("Position file rewritten",
		zap.String("file", paths.Graph),
		zap.Int("renamed", len(result.Renamed)),
		zap.Int("added", len(result.Added)),
		zap.Int("dropped", len(result.Dropped)))
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	paths, err := talkArg(env, cmd)
	if err != nil {
		return err
	}

	r := reload.New(paths, env)
	notify := func(gen *reload.Generation, err error) {
		if err != nil || gen == nil {
			return
		}
		storeSlides(env, fmt.Sprintf("generation-%03d", gen.Seq), gen.Talk, gen.Views)
	}
	// broken talk at start is not fatal, it could be fixed while watching
	gen, err := r.Reload(ctx)
	if err != nil {
		env.Log.Error("Unable to load talk", zap.Error(err))
	}
	notify(gen, err)
	return r.Watch(ctx, notify)
}
