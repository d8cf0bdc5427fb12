// Package focus highlights one body-part mesh at a time, fades the meshes
// in front of it and frames it with the camera.
package focus

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/config"
	"github.com/Faultbox/bodyview/internal/engine/camera"
	"github.com/Faultbox/bodyview/internal/logger"
	"github.com/Faultbox/bodyview/internal/scene"
	"github.com/Faultbox/bodyview/pkg/math"
)

// ErrNotFound is returned when no mesh matches the requested name. It also
// covers the case where no model is loaded.
var ErrNotFound = errors.New("mesh not found")

// Result describes a successful focus.
type Result struct {
	Name      string   `json:"name"`
	Status    Status   `json:"status"`
	Severity  string   `json:"severity,omitempty"`
	Occluders []string `json:"occluders"`
}

// State is a snapshot of the viewer for hosts.
type State struct {
	Source    string      `json:"source"`
	Meshes    int         `json:"meshes"`
	Focused   string      `json:"focused,omitempty"`
	Status    *Status     `json:"status,omitempty"`
	Severity  string      `json:"severity,omitempty"`
	Camera    camera.Pose `json:"camera"`
	Animating bool        `json:"animating"`
}

type focusState struct {
	entry    *Entry
	status   Status
	severity string
}

// Viewer owns the loaded model, its index and the camera. It is not safe for
// concurrent use; every call must come from the goroutine driving Tick.
type Viewer struct {
	log       *zap.Logger
	model     scene.Model
	source    string
	version   uint64
	index     *Index
	cam       *camera.OrbitCamera
	animator  *camera.Animator
	highlight Highlighter
	framer    Framer
	focus     *focusState
}

// NewViewer creates a viewer with no model loaded.
func NewViewer(cfg config.FocusConfig) *Viewer {
	cam := camera.NewOrbitCamera()
	return &Viewer{
		log:      logger.Named("focus"),
		index:    NewIndex(nil),
		cam:      cam,
		animator: camera.NewAnimator(cam),
		highlight: Highlighter{
			FadeOpacity:      cfg.FadeOpacity,
			EmissiveFraction: cfg.EmissiveFraction,
		},
		framer: Framer{
			DistanceMultiplier: cfg.DistanceMultiplier,
			Duration:           cfg.FramingDuration,
		},
	}
}

// Camera returns the viewer's camera.
func (v *Viewer) Camera() *camera.OrbitCamera { return v.cam }

// Index returns the index of the current model.
func (v *Viewer) Index() *Index { return v.index }

// Model returns the current model, or nil.
func (v *Viewer) Model() scene.Model { return v.model }

// Version increases every time the model is replaced.
func (v *Viewer) Version() uint64 { return v.version }

// Focused returns the focused entry, if any.
func (v *Viewer) Focused() (*Entry, bool) {
	if v.focus == nil {
		return nil, false
	}
	return v.focus.entry, true
}

// Animating reports whether a framing animation is in flight.
func (v *Viewer) Animating() bool { return v.animator.Active() }

// SetModel replaces the current model. The old model is disposed and any
// focus or camera animation on it is dropped. A nil model unloads.
func (v *Viewer) SetModel(model scene.Model, source string) {
	v.animator.Cancel()
	v.focus = nil

	if v.model != nil {
		if err := v.model.Dispose(); err != nil {
			v.log.Warn("dispose previous model", zap.String("source", v.source), zap.Error(err))
		}
	}

	v.model = model
	v.source = source
	v.version++
	v.index = NewIndex(model)

	v.log.Info("model set", zap.String("source", source), zap.Int("meshes", v.index.Len()))
	v.ResetView()
}

// Focus highlights the mesh matching name, fades the meshes in front of it
// and starts framing it. Once the camera settles the fade is computed again
// from the new position. A later call supersedes any earlier one.
//
// When nothing matches, ErrNotFound is returned and the scene is untouched.
func (v *Viewer) Focus(name string, status Status, severity string) (Result, error) {
	target := v.index.Resolve(name)
	if target == nil {
		v.log.Warn("focus target not found", zap.String("name", name), zap.Int("meshes", v.index.Len()))
		return Result{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return v.focusEntry(target, status, severity), nil
}

// FocusMesh is Focus for a mesh handle, such as a pick result. Names may
// repeat within a model; the handle does not.
func (v *Viewer) FocusMesh(r scene.Renderable, status Status, severity string) (Result, error) {
	target := v.index.Lookup(r)
	if target == nil {
		return Result{}, ErrNotFound
	}
	return v.focusEntry(target, status, severity), nil
}

func (v *Viewer) focusEntry(target *Entry, status Status, severity string) Result {
	v.animator.Cancel()
	v.highlight.ResetAll(v.index)
	v.highlight.ApplyHighlight(target, status)

	occluders := v.fadeOccluders(target, false)

	// A mesh without geometry has nowhere to frame
	if !target.Bounds.IsEmpty() {
		v.animator.Start(v.framer.Frame(target.Bounds, v.cam, func() {
			v.settle(target)
		}))
	}
	v.focus = &focusState{entry: target, status: status, severity: severity}

	v.log.Debug("focused",
		zap.String("mesh", target.Name),
		zap.Stringer("status", status),
		zap.Strings("occluders", occluders))

	return Result{Name: target.Name, Status: status, Severity: severity, Occluders: occluders}
}

// ClearFocus restores every material and stops camera motion.
func (v *Viewer) ClearFocus() {
	v.animator.Cancel()
	v.highlight.ResetAll(v.index)
	v.focus = nil
}

// ResetView places the camera to show the whole model. The move is
// immediate. If a mesh is focused its occluders are computed again.
func (v *Viewer) ResetView() {
	v.animator.Cancel()
	if v.model == nil || v.index.Len() == 0 {
		return
	}
	bounds := v.model.Bounds()
	if bounds.IsEmpty() {
		return
	}
	position, target := WholeModelPose(bounds)
	v.cam.SetPose(position, target)

	if v.focus != nil {
		v.fadeOccluders(v.focus.entry, true)
	}
}

// RefreshOcclusion recomputes the fade for the focused mesh from the
// current camera position. Used after the user orbits by hand.
func (v *Viewer) RefreshOcclusion() {
	if v.focus == nil || v.animator.Active() {
		return
	}
	v.fadeOccluders(v.focus.entry, true)
}

// Tick advances camera animation.
func (v *Viewer) Tick(dt time.Duration) {
	v.animator.Tick(dt)
}

// State returns a snapshot for hosts.
func (v *Viewer) State() State {
	s := State{
		Source:    v.source,
		Meshes:    v.index.Len(),
		Camera:    v.cam.Pose(),
		Animating: v.animator.Active(),
	}
	if v.focus != nil {
		status := v.focus.status
		s.Focused = v.focus.entry.Name
		s.Status = &status
		s.Severity = v.focus.severity
	}
	return s
}

func (v *Viewer) settle(target *Entry) {
	if v.focus == nil || v.focus.entry != target {
		return
	}
	occluders := v.fadeOccluders(target, true)
	v.log.Debug("camera settled", zap.String("mesh", target.Name), zap.Strings("occluders", occluders))
}

// fadeOccluders fades every mesh between the camera and target. With
// restore set, meshes that no longer obstruct get their opacity back.
func (v *Viewer) fadeOccluders(target *Entry, restore bool) []string {
	camPos := v.cam.Position()
	camDir := v.viewDirection(camPos, target)

	occluders := []string{}
	for _, e := range v.index.entries {
		if e == target {
			continue
		}
		if IsObstructing(e, target, camPos, camDir) {
			v.highlight.ApplyOcclusionFade(e)
			occluders = append(occluders, e.Name)
		} else if restore {
			v.highlight.ClearFade(e)
		}
	}
	return occluders
}

func (v *Viewer) viewDirection(camPos math.Vec3, target *Entry) math.Vec3 {
	dir := target.Bounds.Center().Sub(camPos)
	if dir.Length() < 1e-6 {
		return v.cam.Forward()
	}
	return dir.Normalize()
}
