// Package app runs the event loop that owns the viewer. Every viewer
// mutation happens on the loop goroutine; other goroutines submit work
// through Do.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/config"
	"github.com/Faultbox/bodyview/internal/focus"
	"github.com/Faultbox/bodyview/internal/loader"
	"github.com/Faultbox/bodyview/internal/logger"
)

var (
	// ErrStopped is returned when work is submitted after the loop exited.
	ErrStopped = errors.New("event loop stopped")
	// ErrSuperseded is returned by LoadModel when a newer load started
	// before this one finished. The loaded model is discarded.
	ErrSuperseded = errors.New("model load superseded")
	// ErrTaskPanicked is returned by Do when the submitted function panicked.
	ErrTaskPanicked = errors.New("task panicked")
)

// ModelLoader resolves a URL to a scene graph.
type ModelLoader interface {
	Load(ctx context.Context, url string) (*loader.Result, error)
}

// Task is work executed on the loop with exclusive access to the viewer.
type Task func(v *focus.Viewer)

type queued struct {
	fn   Task
	done chan error
}

// App is the event loop plus the viewer it owns.
type App struct {
	viewer   *focus.Viewer
	loader   ModelLoader
	tickRate int
	log      *zap.Logger

	tasks    chan queued
	stopped  chan struct{}
	stopOnce sync.Once
	loadSeq  atomic.Uint64
}

// New creates an app around viewer. The loop does not run until Run is
// called, or Frame is driven by a window.
func New(viewer *focus.Viewer, ld ModelLoader, cfg config.LoopConfig) *App {
	rate := cfg.TickRate
	if rate <= 0 {
		rate = 60
	}
	return &App{
		viewer:   viewer,
		loader:   ld,
		tickRate: rate,
		log:      logger.Named("app"),
		tasks:    make(chan queued, 64),
		stopped:  make(chan struct{}),
	}
}

// Do runs fn on the loop and waits for it. If ctx ends first Do returns
// ctx.Err(), and fn may still run later.
func (a *App) Do(ctx context.Context, fn Task) error {
	q := queued{fn: fn, done: make(chan error, 1)}

	select {
	case a.tasks <- q:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.stopped:
		return ErrStopped
	}

	select {
	case err := <-q.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.stopped:
		return ErrStopped
	}
}

// Run drives the loop at the configured tick rate until ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.Stop()

	ticker := time.NewTicker(time.Second / time.Duration(a.tickRate))
	defer ticker.Stop()

	a.log.Info("event loop started", zap.Int("tick_rate", a.tickRate))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("event loop stopped")
			return nil
		case <-a.stopped:
			return nil
		case q := <-a.tasks:
			a.execute(q)
		case now := <-ticker.C:
			a.viewer.Tick(now.Sub(last))
			last = now
		}
	}
}

// Frame drains pending tasks and advances animation by dt. Windowed hosts
// call it once per frame from the loop goroutine instead of Run.
func (a *App) Frame(dt time.Duration) {
	for {
		select {
		case q := <-a.tasks:
			a.execute(q)
		default:
			a.viewer.Tick(dt)
			return
		}
	}
}

// Stop ends the loop. Pending and future Do calls fail with ErrStopped.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.stopped) })
}

// Viewer returns the owned viewer. Only the loop goroutine may use it.
func (a *App) Viewer() *focus.Viewer { return a.viewer }

func (a *App) execute(q queued) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("task panicked", zap.Any("panic", r), zap.Stack("stack"))
			q.done <- fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	q.fn(a.viewer)
	q.done <- nil
}

// LoadModel fetches and decodes url off the loop, then swaps the model in
// on the loop. On failure the current model stays. If another LoadModel
// starts before this one finishes, this result is dropped with ErrSuperseded.
func (a *App) LoadModel(ctx context.Context, url string) (*loader.Result, error) {
	seq := a.loadSeq.Add(1)

	res, err := a.loader.Load(ctx, url)
	if err != nil {
		a.log.Warn("keeping previous model", zap.String("url", url), zap.Error(err))
		return res, err
	}

	var stale bool
	// The swap must not be abandoned halfway, so it ignores ctx.
	err = a.Do(context.WithoutCancel(ctx), func(v *focus.Viewer) {
		if a.loadSeq.Load() != seq {
			stale = true
			return
		}
		v.SetModel(res.Graph, url)
	})
	if err != nil {
		return res, err
	}
	if stale {
		a.log.Info("discarding superseded model", zap.String("url", url))
		if derr := res.Graph.Dispose(); derr != nil {
			a.log.Warn("dispose superseded model", zap.Error(derr))
		}
		res.Graph = nil
		return res, ErrSuperseded
	}
	return res, nil
}

// Focus runs Viewer.Focus on the loop.
func (a *App) Focus(ctx context.Context, name string, status focus.Status, severity string) (focus.Result, error) {
	var (
		res  focus.Result
		ferr error
	)
	if err := a.Do(ctx, func(v *focus.Viewer) {
		res, ferr = v.Focus(name, status, severity)
	}); err != nil {
		return focus.Result{}, err
	}
	return res, ferr
}

// ClearFocus runs Viewer.ClearFocus on the loop.
func (a *App) ClearFocus(ctx context.Context) error {
	return a.Do(ctx, func(v *focus.Viewer) { v.ClearFocus() })
}

// ResetView runs Viewer.ResetView on the loop.
func (a *App) ResetView(ctx context.Context) error {
	return a.Do(ctx, func(v *focus.Viewer) { v.ResetView() })
}

// State returns a viewer snapshot taken on the loop.
func (a *App) State(ctx context.Context) (focus.State, error) {
	var s focus.State
	if err := a.Do(ctx, func(v *focus.Viewer) { s = v.State() }); err != nil {
		return focus.State{}, err
	}
	return s, nil
}

// Meshes lists the mesh names of the current model.
func (a *App) Meshes(ctx context.Context) ([]string, error) {
	var names []string
	if err := a.Do(ctx, func(v *focus.Viewer) { names = v.Index().Names() }); err != nil {
		return nil, err
	}
	return names, nil
}
