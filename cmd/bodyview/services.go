package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/app"
	"github.com/Faultbox/bodyview/internal/bridge"
	"github.com/Faultbox/bodyview/internal/config"
	"github.com/Faultbox/bodyview/internal/focus"
	"github.com/Faultbox/bodyview/internal/injury"
	"github.com/Faultbox/bodyview/internal/loader"
	"github.com/Faultbox/bodyview/internal/logger"
	"github.com/Faultbox/bodyview/internal/watch"
)

// defaultModel is loaded when no model URL is configured.
const defaultModel = loader.BuiltinPrefix + "mannequin"

// services is everything shared by serve and view.
type services struct {
	cfg     *config.Config
	app     *app.App
	store   *injury.Store
	server  *bridge.Server
	watcher *watch.Watcher
}

// setup loads config, initializes logging and wires the viewer, loader,
// injury store and HTTP bridge.
func setup(ctx context.Context) (*services, error) {
	cfg, err := config.Load(&flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Debug("config loaded", zap.Any("config", cfg))

	rt := &services{cfg: cfg}

	viewer := focus.NewViewer(cfg.Focus)
	ld := loader.New(cfg.Model, cfg.CacheDir())
	rt.app = app.New(viewer, ld, cfg.Loop)

	if dir := filepath.Dir(cfg.Storage.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage dir: %w", err)
		}
	}
	rt.store, err = injury.Open(ctx, cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("injury store: %w", err)
	}

	rt.server = bridge.New(cfg.Server, rt.app, rt.store)
	return rt, nil
}

// modelURL is the model loaded at startup.
func (rt *services) modelURL() string {
	if rt.cfg.Model.URL != "" {
		return rt.cfg.Model.URL
	}
	return defaultModel
}

// start begins serving the bridge, loads the initial model and, when
// enabled, watches a local model file for changes. The loop must already
// be running or about to run on another goroutine.
func (rt *services) start(ctx context.Context) {
	go func() {
		logger.Info("host bridge listening", zap.String("addr", rt.cfg.Server.Addr))
		if err := rt.server.Listen(); err != nil {
			logger.Error("host bridge stopped", zap.Error(err))
		}
	}()

	url := rt.modelURL()
	go rt.load(ctx, url)

	if rt.cfg.Model.Watch && loader.IsLocal(url) {
		if err := rt.watch(ctx, url); err != nil {
			logger.Warn("model watch disabled", zap.Error(err))
		}
	}
}

func (rt *services) load(ctx context.Context, url string) {
	res, err := rt.app.LoadModel(ctx, url)
	switch {
	case errors.Is(err, app.ErrSuperseded), errors.Is(err, app.ErrStopped):
		return
	case err != nil:
		logger.Error("model load failed", zap.String("url", url), zap.Error(err))
	default:
		logger.Info("model loaded", zap.String("url", url), zap.String("strategy", res.Strategy))
	}
}

func (rt *services) watch(ctx context.Context, url string) error {
	w, err := watch.New(watch.DefaultDebounce)
	if err != nil {
		return err
	}
	path := loader.LocalPath(url)
	if err := w.Watch([]string{path}, func(string) {
		logger.Info("model changed, reloading", zap.String("path", path))
		rt.load(ctx, url)
	}); err != nil {
		w.Close()
		return err
	}
	w.Start()
	rt.watcher = w
	return nil
}

// shutdown stops the bridge, the watcher and the store.
func (rt *services) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.WriteTimeout)
	defer cancel()

	if err := rt.server.Shutdown(ctx); err != nil {
		logger.Warn("bridge shutdown", zap.Error(err))
	}
	if rt.watcher != nil {
		rt.watcher.Close()
	}
	rt.app.Stop()
	if err := rt.store.Close(); err != nil {
		logger.Warn("store close", zap.Error(err))
	}
	logger.Sync()
}
