// Package frontend runs the interactive window: input, event loop frames
// and rendering, all on the main thread.
package frontend

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/app"
	"github.com/Faultbox/bodyview/internal/config"
	"github.com/Faultbox/bodyview/internal/engine/debug"
	"github.com/Faultbox/bodyview/internal/engine/input"
	"github.com/Faultbox/bodyview/internal/engine/renderer"
	"github.com/Faultbox/bodyview/internal/engine/window"
	"github.com/Faultbox/bodyview/internal/focus"
	"github.com/Faultbox/bodyview/internal/logger"
	"github.com/Faultbox/bodyview/internal/scene"
)

const title = "bodyview"

// Frontend is the interactive viewer window.
type Frontend struct {
	app      *app.App
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	shots    *debug.ScreenshotCapture
	running  bool
	log      *zap.Logger
}

// New opens the window and renderer. It must be called on the main thread.
func New(cfg *config.Config, a *app.App) (*Frontend, error) {
	f := &Frontend{
		app:   a,
		input: input.New(),
		shots: debug.NewScreenshotCapture("screenshots", "bodyview"),
		log:   logger.Named("frontend"),
	}

	var err error
	f.window, err = window.New(title, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer AFTER window, since the OpenGL context must exist
	w, h := f.window.DrawableSize()
	f.renderer, err = renderer.New(w, h, cfg.Window.FOV)
	if err != nil {
		f.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return f, nil
}

// Run drives the event loop from the window until it closes or ctx ends.
// It replaces App.Run in windowed mode.
func (f *Frontend) Run(ctx context.Context) error {
	defer f.app.Stop()
	f.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	f.log.Info("starting render loop")

	for f.running {
		if ctx.Err() != nil {
			break
		}

		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if f.input.Update() {
			break
		}
		viewer := f.app.Viewer()
		for _, ev := range f.input.Events() {
			f.handle(viewer, ev)
		}

		f.app.Frame(dt)
		f.renderer.Render(viewer)
		f.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			f.log.Debug("fps", zap.Int("count", frameCount))
			f.updateTitle(viewer)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	f.log.Info("render loop stopped")
	return nil
}

// Close releases the renderer and window.
func (f *Frontend) Close() {
	if f.renderer != nil {
		f.renderer.Close()
	}
	if f.window != nil {
		f.window.Close()
	}
}

func (f *Frontend) handle(v *focus.Viewer, ev input.Event) {
	cam := v.Camera()

	switch ev.Type {
	case input.EventWindowResize:
		f.renderer.Resize(f.window.DrawableSize())

	case input.EventMouseDrag:
		cam.HandleDrag(ev.DeltaX, ev.DeltaY)

	case input.EventMouseRelease:
		v.RefreshOcclusion()

	case input.EventMouseWheel:
		cam.HandleZoom(ev.DeltaY)
		v.RefreshOcclusion()

	case input.EventMouseClick:
		f.pick(v, ev.MouseX, ev.MouseY)

	case input.EventKeyDown:
		switch ev.Key {
		case sdl.SCANCODE_ESCAPE:
			f.running = false
		case sdl.SCANCODE_R:
			v.ResetView()
		case sdl.SCANCODE_C:
			v.ClearFocus()
		case sdl.SCANCODE_P:
			f.screenshot()
		}
	}
}

// pick focuses the mesh under the pointer.
func (f *Frontend) pick(v *focus.Viewer, x, y int) {
	graph, ok := v.Model().(*scene.Graph)
	if !ok || graph == nil {
		return
	}
	w, h := f.window.Size()
	ray := f.renderer.ScreenRay(v.Camera(), x, y, w, h)

	mesh, _, hit := graph.Pick(ray)
	if !hit {
		return
	}
	if _, err := v.FocusMesh(mesh, focus.StatusOther, ""); err != nil {
		f.log.Warn("pick focus failed", zap.String("mesh", mesh.Name()), zap.Error(err))
	}
}

func (f *Frontend) screenshot() {
	pixels, w, h := f.renderer.ReadPixels()
	path, err := f.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		f.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	f.log.Info("screenshot saved", zap.String("path", path))
}

func (f *Frontend) updateTitle(v *focus.Viewer) {
	s := v.State()
	t := title
	if s.Source != "" {
		t += " - " + s.Source
	}
	if s.Focused != "" {
		t += " [" + s.Focused + "]"
	}
	f.window.SetTitle(t)
}
