package reload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultDebounce is used when configuration does not specify delay.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes of a single file. Directory is watched rather than
// file itself so that editors replacing file on save are noticed.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *zap.Logger
	fsw      *fsnotify.Watcher
}

func NewWatcher(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to watch %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return nil, multierr.Append(fmt.Errorf("unable to watch %s: %w", path, err), fsw.Close())
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		log:      log.Named("watch"),
		fsw:      fsw,
	}, nil
}

// Run calls onChange once file stopped changing for debounce interval. Run
// returns when context is cancelled, watcher is released on return.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) (err error) {
	defer func() {
		err = multierr.Append(err, w.fsw.Close())
	}()

	w.log.Info("Watching for changes", zap.String("file", w.path), zap.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping watcher")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("file watcher closed unexpectedly")
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("Talk changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("file watcher closed unexpectedly")
			}
			w.log.Warn("File watcher error", zap.Error(err))

		case <-timer.C:
			onChange(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}
