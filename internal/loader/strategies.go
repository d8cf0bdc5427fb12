package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/logger"
	"github.com/Faultbox/bodyview/internal/scene"
)

// BuiltinPrefix marks models compiled into the binary.
const BuiltinPrefix = "builtin:"

// maxDownloadSize caps HTTP model downloads.
const maxDownloadSize = 256 << 20

var errCacheMiss = errors.New("not cached")

type builtinStrategy struct{}

// Builtin serves models compiled into the binary, e.g. "builtin:mannequin".
func Builtin() Strategy { return builtinStrategy{} }

func (builtinStrategy) Name() string { return "builtin" }

func (builtinStrategy) Accepts(url string) bool {
	return strings.HasPrefix(url, BuiltinPrefix)
}

func (builtinStrategy) Load(_ context.Context, url string) (*scene.Graph, error) {
	switch name := strings.TrimPrefix(url, BuiltinPrefix); name {
	case "mannequin":
		return scene.Mannequin(), nil
	default:
		return nil, fmt.Errorf("unknown builtin model %q", name)
	}
}

type fileStrategy struct{}

// File loads glTF files from the local filesystem. It accepts plain paths
// and file:// URLs.
func File() Strategy { return fileStrategy{} }

func (fileStrategy) Name() string { return "file" }

func (fileStrategy) Accepts(url string) bool {
	if strings.HasPrefix(url, "file://") {
		return true
	}
	return !strings.Contains(url, "://") && !strings.HasPrefix(url, BuiltinPrefix)
}

func (fileStrategy) Load(_ context.Context, url string) (*scene.Graph, error) {
	return DecodeFile(LocalPath(url))
}

// LocalPath strips a file:// scheme.
func LocalPath(url string) string {
	return strings.TrimPrefix(url, "file://")
}

// IsLocal reports whether url names a file on disk.
func IsLocal(url string) bool {
	return url != "" && !isRemote(url) && !strings.HasPrefix(url, BuiltinPrefix)
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

type httpStrategy struct {
	client  *http.Client
	timeout time.Duration
	cache   *Cache
	log     *zap.Logger
}

// HTTP downloads models over http(s). Successful downloads are stored in
// cache when it is non-nil.
func HTTP(client *http.Client, timeout time.Duration, cache *Cache) Strategy {
	return &httpStrategy{client: client, timeout: timeout, cache: cache, log: logger.Named("loader")}
}

func (s *httpStrategy) Name() string { return "http" }

func (s *httpStrategy) Accepts(url string) bool { return isRemote(url) }

func (s *httpStrategy) Load(ctx context.Context, url string) (*scene.Graph, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "model/gltf-binary, model/gltf+json, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("model larger than %d bytes", maxDownloadSize)
	}

	g, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(url, data); err != nil {
			s.log.Warn("caching model", zap.String("url", url), zap.Error(err))
		}
	}
	return g, nil
}

type cacheStrategy struct {
	cache *Cache
}

// Cached serves previously downloaded copies of remote models.
func Cached(cache *Cache) Strategy { return cacheStrategy{cache: cache} }

func (cacheStrategy) Name() string { return "cache" }

func (s cacheStrategy) Accepts(url string) bool { return s.cache != nil && isRemote(url) }

func (s cacheStrategy) Load(_ context.Context, url string) (*scene.Graph, error) {
	data, ok := s.cache.Get(url)
	if !ok {
		return nil, errCacheMiss
	}
	return Decode(data)
}
