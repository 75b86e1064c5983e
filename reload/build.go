// Package reload rebuilds presentation state from talk script as a whole and
// keeps it current while the script is being edited.
package reload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mtalk/display"
	"mtalk/graph"
	"mtalk/latex"
	"mtalk/state"
	"mtalk/talk"
)

// Generation is complete presentation state built from a single version of
// talk script. Generation is never modified after it is built, except by the
// presentation loop owning it.
type Generation struct {
	Seq        int
	Paths      talk.Paths
	Talk       *talk.Talk
	Views      *display.Views
	Resolution graph.Resolution
	Positions  *graph.Result
	Built      time.Time
}

// Build reads talk script, parses it, flattens every slide at its current
// card and reconciles canvas positions. Either everything succeeds or error is
// returned and nothing but position file is touched. Failure to save position
// file is only logged.
func Build(ctx context.Context, paths talk.Paths, env *state.LocalEnv) (*Generation, error) {
	return build(ctx, paths, env, latex.NewRenderer(paths.Latex, env.Cfg.Latex, env.Log))
}

// Load reads and parses talk script using display geometry from
// configuration. Nothing is rendered and position file is not consulted.
func Load(paths talk.Paths, env *state.LocalEnv) (*talk.Talk, graph.Resolution, error) {
	var res graph.Resolution
	if env.Cfg == nil || env.Styles == nil {
		return nil, res, fmt.Errorf("environment is not prepared")
	}

	lines, err := talk.ReadFile(paths.Talk, env.Cfg.Talk.Encoding, env.Log)
	if err != nil {
		return nil, res, err
	}
	design, err := talk.PeekDesignSize(lines)
	if err != nil {
		return nil, res, fmt.Errorf("talk %s: %w", paths.Talk, err)
	}
	res = graph.NewResolution(design, talk.Size{Width: env.Cfg.Talk.DisplayWidth, Height: env.Cfg.Talk.DisplayHeight})

	tk, err := talk.Parse(lines, talk.ParseOptions{Styles: env.Styles, ViewportHeight: res.Screen.Height}, env.Log)
	if err != nil {
		return nil, res, fmt.Errorf("talk %s: %w", paths.Talk, err)
	}
	return tk, res, nil
}

func build(ctx context.Context, paths talk.Paths, env *state.LocalEnv, tex display.LatexRenderer) (*Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tk, res, err := Load(paths, env)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	views := display.NewViews(tk, tex)
	if err := views.RefreshAll(); err != nil {
		return nil, fmt.Errorf("talk %s: %w", paths.Talk, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	positions, err := graph.Sync(paths.Graph, tk, res, env.Log)
	if positions == nil {
		return nil, err
	}
	if err != nil {
		// positions in memory are good, file will be rewritten next time
		env.Log.Warn("Unable to save positions", zap.String("file", paths.Graph), zap.Error(err))
	}

	return &Generation{
		Paths:      paths,
		Talk:       tk,
		Views:      views,
		Resolution: res,
		Positions:  positions,
		Built:      time.Now(),
	}, nil
}

// Reloader holds the current generation. Failed rebuild keeps previous
// generation in place.
type Reloader struct {
	paths talk.Paths
	env   *state.LocalEnv
	tex   display.LatexRenderer
	log   *zap.Logger

	mu      sync.Mutex
	current *Generation
	seq     int
}

func New(paths talk.Paths, env *state.LocalEnv) *Reloader {
	return &Reloader{
		paths: paths,
		env:   env,
		tex:   latex.NewRenderer(paths.Latex, env.Cfg.Latex, env.Log),
		log:   env.Log.Named("reload"),
	}
}

// Current returns the latest successfully built generation, nil before the
// first one.
func (r *Reloader) Current() *Generation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Reload builds new generation and makes it current.
func (r *Reloader) Reload(ctx context.Context) (*Generation, error) {
	start := time.Now()
	gen, err := build(ctx, r.paths, r.env, r.tex)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if r.current != nil {
			r.log.Warn("Rebuild failed, keeping previous talk", zap.Int("generation", r.current.Seq), zap.Error(err))
		}
		return r.current, err
	}
	r.seq++
	gen.Seq = r.seq
	r.current = gen

	fields := []zap.Field{
		zap.Int("generation", gen.Seq),
		zap.Int("slides", len(gen.Talk.Slides)),
		zap.Stringer("screen", gen.Resolution.Screen),
		zap.Duration("elapsed", time.Since(start)),
	}
	if !gen.Positions.FastPath {
		fields = append(fields, zap.Int("added", len(gen.Positions.Added)), zap.Int("renamed", len(gen.Positions.Renamed)), zap.Strings("dropped", gen.Positions.Dropped))
	}
	r.log.Info("Talk loaded", fields...)
	return gen, nil
}

// Watch reloads talk every time its script changes until context is
// cancelled. Optional notify is called after every rebuild attempt.
func (r *Reloader) Watch(ctx context.Context, notify func(*Generation, error)) error {
	w, err := NewWatcher(r.paths.Talk, r.env.Cfg.Talk.WatchDebounce, r.env.Log)
	if err != nil {
		return err
	}
	return w.Run(ctx, func(ctx context.Context) {
		gen, err := r.Reload(ctx)
		if err != nil {
			r.log.Error("Unable to reload talk", zap.Error(err))
		}
		if notify != nil {
			notify(gen, err)
		}
	})
}
