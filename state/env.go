// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mtalk/config"
	"mtalk/style"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg    *config.Config
	Rpt    *config.Report
	Log    *zap.Logger
	Styles *style.Registry

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

// PrepareStyles builds style registry from loaded configuration.
func (e *LocalEnv) PrepareStyles() error {
	if e.Cfg == nil {
		return fmt.Errorf("configuration is not loaded")
	}
	reg, err := style.NewRegistry(e.Cfg.Styles)
	if err != nil {
		return fmt.Errorf("unable to prepare styles: %w", err)
	}
	e.Styles = reg
	return nil
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
