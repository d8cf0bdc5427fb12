// Package bridge exposes the viewer to host applications over HTTP.
// Requests are marshalled onto the event loop; handlers never touch the
// viewer directly.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/app"
	"github.com/Faultbox/bodyview/internal/config"
	"github.com/Faultbox/bodyview/internal/focus"
	"github.com/Faultbox/bodyview/internal/injury"
	"github.com/Faultbox/bodyview/internal/loader"
	"github.com/Faultbox/bodyview/internal/logger"
)

// Host is the viewer side of the bridge.
type Host interface {
	LoadModel(ctx context.Context, url string) (*loader.Result, error)
	Focus(ctx context.Context, name string, status focus.Status, severity string) (focus.Result, error)
	ClearFocus(ctx context.Context) error
	ResetView(ctx context.Context) error
	State(ctx context.Context) (focus.State, error)
	Meshes(ctx context.Context) ([]string, error)
}

// Injuries is the record store behind the /injuries routes.
type Injuries interface {
	Create(ctx context.Context, in injury.Input) (injury.Record, error)
	List(ctx context.Context) ([]injury.Record, error)
	Get(ctx context.Context, id uuid.UUID) (injury.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

const (
	loopTimeout = 5 * time.Second
	loadTimeout = 2 * time.Minute
)

// Server is the HTTP bridge.
type Server struct {
	app   *fiber.App
	host  Host
	store Injuries
	addr  string
	log   *zap.Logger
}

// New builds the bridge. A nil store disables the /injuries routes.
func New(cfg config.ServerConfig, host Host, store Injuries) *Server {
	s := &Server{
		host:  host,
		store: store,
		addr:  cfg.Addr,
		log:   logger.Named("bridge"),
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		AppName:      "bodyview",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	s.app.Use(recover.New())
	s.app.Use(requestLogger(s.log))
	if cfg.CORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowHeaders: []string{"*"},
			AllowMethods: []string{"*"},
		}))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health/live", s.live)
	s.app.Get("/health/ready", s.ready)

	s.app.Post("/model/load", s.loadModel)
	s.app.Get("/meshes", s.meshes)
	s.app.Post("/focus", s.focus)
	s.app.Delete("/focus", s.clearFocus)
	s.app.Post("/view/reset", s.resetView)
	s.app.Get("/state", s.state)

	if s.store != nil {
		s.app.Get("/injuries", s.listInjuries)
		s.app.Post("/injuries", s.createInjury)
		s.app.Get("/injuries/:id", s.getInjury)
		s.app.Delete("/injuries/:id", s.deleteInjury)
		s.app.Post("/injuries/:id/focus", s.focusInjury)
	}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown.
func (s *Server) Listen() error {
	s.log.Info("bridge listening", zap.String("addr", s.addr))
	return s.app.Listen(s.addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return err
	}
}

func errorJSON(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// loopError maps event loop failures onto responses.
func loopError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, app.ErrStopped):
		return errorJSON(c, http.StatusServiceUnavailable, "viewer stopped")
	case errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, http.StatusGatewayTimeout, "viewer busy")
	default:
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
}

func loopCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), loopTimeout)
}
