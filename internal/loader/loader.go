// Package loader resolves a model URL to a scene graph by trying an ordered
// list of strategies.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/config"
	"github.com/Faultbox/bodyview/internal/logger"
	"github.com/Faultbox/bodyview/internal/scene"
)

// ErrAllStrategiesFailed is returned when no strategy produced a model.
var ErrAllStrategiesFailed = errors.New("all load strategies failed")

// Strategy is one way of turning a URL into a graph.
type Strategy interface {
	Name() string
	Accepts(url string) bool
	Load(ctx context.Context, url string) (*scene.Graph, error)
}

// Attempt records one strategy run.
type Attempt struct {
	Strategy string
	Err      error
	Duration time.Duration
}

// Result is the outcome of a Load, successful or not.
type Result struct {
	URL      string
	Graph    *scene.Graph // nil on failure
	Strategy string       // Name of the strategy that succeeded
	Attempts []Attempt
}

// OK reports whether a graph was loaded.
func (r *Result) OK() bool {
	return r != nil && r.Graph != nil
}

// Loader tries strategies in order until one succeeds.
type Loader struct {
	strategies    []Strategy
	normalizeSize float32
	log           *zap.Logger
}

// New creates a loader with the builtin, file, http and cache strategies.
// Downloads are kept in cacheDir.
func New(cfg config.ModelConfig, cacheDir string) *Loader {
	cache := NewCache(cacheDir)
	return NewWithStrategies(cfg.NormalizeSize,
		Builtin(),
		File(),
		HTTP(&http.Client{}, cfg.HTTPTimeout, cache),
		Cached(cache),
	)
}

// NewWithStrategies creates a loader with an explicit strategy list.
// A positive normalizeSize rescales loaded models to that size.
func NewWithStrategies(normalizeSize float32, strategies ...Strategy) *Loader {
	return &Loader{
		strategies:    strategies,
		normalizeSize: normalizeSize,
		log:           logger.Named("loader"),
	}
}

// Load runs every strategy that accepts url until one succeeds. The
// returned Result lists all attempts either way.
func (l *Loader) Load(ctx context.Context, url string) (*Result, error) {
	res := &Result{URL: url}
	var errs []error

	for _, s := range l.strategies {
		if !s.Accepts(url) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		start := time.Now()
		g, err := s.Load(ctx, url)
		if err == nil && g == nil {
			err = errors.New("strategy returned no model")
		}
		res.Attempts = append(res.Attempts, Attempt{Strategy: s.Name(), Err: err, Duration: time.Since(start)})

		if err != nil {
			l.log.Debug("load attempt failed",
				zap.String("url", url),
				zap.String("strategy", s.Name()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}

		g.Source = url
		if l.normalizeSize > 0 {
			g.Normalize(l.normalizeSize)
		}
		res.Graph = g
		res.Strategy = s.Name()

		l.log.Info("model loaded",
			zap.String("url", url),
			zap.String("strategy", s.Name()),
			zap.Int("meshes", len(g.Meshes())),
			zap.Int("attempts", len(res.Attempts)))
		return res, nil
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no strategy accepts this url"))
	}
	l.log.Warn("model load failed", zap.String("url", url), zap.Int("attempts", len(res.Attempts)))
	return res, fmt.Errorf("%w: %s: %w", ErrAllStrategiesFailed, url, errors.Join(errs...))
}
