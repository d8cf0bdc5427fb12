package focus

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bodyview/internal/config"
	"github.com/Faultbox/bodyview/internal/engine/camera"
	"github.com/Faultbox/bodyview/internal/engine/picking"
	"github.com/Faultbox/bodyview/internal/scene"
	"github.com/Faultbox/bodyview/pkg/math"
)

// fakeMesh records ray tests so the depth pre-filter can be observed.
type fakeMesh struct {
	name   string
	bounds picking.AABB
	mat    *scene.Material
	hit    bool
	calls  int
}

func (f *fakeMesh) Name() string                  { return f.name }
func (f *fakeMesh) Bounds() picking.AABB          { return f.bounds }
func (f *fakeMesh) Material() *scene.Material     { return f.mat }
func (f *fakeMesh) SetMaterial(m *scene.Material) { f.mat = m }
func (f *fakeMesh) IntersectSegment(picking.Ray, float32) bool {
	f.calls++
	return f.hit
}

type fakeModel struct {
	meshes     []*fakeMesh
	disposed   int
	disposeErr error
}

func (m *fakeModel) Walk(fn func(scene.Renderable)) {
	for _, mesh := range m.meshes {
		fn(mesh)
	}
}

func (m *fakeModel) Bounds() picking.AABB {
	b := picking.EmptyAABB()
	for _, mesh := range m.meshes {
		b = b.Union(mesh.bounds)
	}
	return b
}

func (m *fakeModel) Dispose() error {
	m.disposed++
	return m.disposeErr
}

func box(name string, lo, hi math.Vec3) *scene.Node {
	n := scene.NewNode(name)
	mat := scene.DefaultMaterial()
	mat.Name = name + "-mat"
	n.Mesh = scene.NewBox(name, lo, hi, mat)
	return n
}

// lineup is a target at the origin with one box in front of it along +Z,
// one off to the side and one behind it.
func lineup() *scene.Graph {
	root := scene.NewNode("root")
	root.AddChild(
		box("target", math.V3(-0.5, -0.5, -0.5), math.V3(0.5, 0.5, 0.5)),
		box("front", math.V3(-0.4, -0.3, 1.2), math.V3(0.6, 0.7, 1.6)),
		box("side", math.V3(3, -0.5, -0.5), math.V3(4, 0.5, 0.5)),
		box("back", math.V3(-0.5, -0.5, -3), math.V3(0.5, 0.5, -2)),
	)
	return scene.NewGraph(root)
}

func newTestViewer(t *testing.T, model scene.Model) *Viewer {
	t.Helper()
	v := NewViewer(config.Default().Focus)
	v.SetModel(model, "test")
	return v
}

func entry(t *testing.T, v *Viewer, name string) *Entry {
	t.Helper()
	e := v.Index().Resolve(name)
	require.NotNil(t, e, name)
	return e
}

func alpha(t *testing.T, v *Viewer, name string) float32 {
	t.Helper()
	m := entry(t, v, name).Handle.Material()
	require.NotNil(t, m)
	return m.Alpha
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"active", StatusActive},
		{"ACTIVE", StatusActive},
		{"past", StatusPast},
		{"recovered", StatusPast},
		{"moderate", StatusOther},
		{"", StatusOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatus(tt.in), tt.in)
	}

	assert.Equal(t, scene.Color{R: 1}, StatusActive.Color())
	assert.Equal(t, scene.Color{G: 1}, StatusPast.Color())
	assert.Equal(t, scene.Color{R: 1, G: 0.65}, StatusOther.Color())
}

func TestResolve(t *testing.T) {
	model := &fakeModel{meshes: []*fakeMesh{
		{name: "upperArm"},
		{name: "Arm"},
		{name: "leftForearm"},
		{name: "rightForearm"},
	}}
	idx := NewIndex(model)
	require.Equal(t, 4, idx.Len())

	tests := []struct {
		query string
		want  string
	}{
		{"arm", "Arm"},            // exact beats earlier substring
		{"FOREARM", "leftForearm"}, // first substring in traversal order
		{"rightforearm", "rightForearm"},
		{"  upperArm ", "upperArm"},
		{"leg", ""},
		{"", ""},
	}
	for _, tt := range tests {
		e := idx.Resolve(tt.query)
		if tt.want == "" {
			assert.Nil(t, e, tt.query)
			continue
		}
		require.NotNil(t, e, tt.query)
		assert.Equal(t, tt.want, e.Name)
	}
}

func TestIndexSnapshotsOriginalMaterial(t *testing.T) {
	mesh := &fakeMesh{name: "head", mat: scene.DefaultMaterial()}
	idx := NewIndex(&fakeModel{meshes: []*fakeMesh{mesh}})

	mesh.mat.Diffuse = scene.Color{R: 1}
	mesh.mat.Alpha = 0.1

	orig := idx.Entries()[0].Original
	assert.Equal(t, scene.DefaultMaterial(), orig)
	assert.NotSame(t, mesh.mat, orig)
}

func TestEmptyIndex(t *testing.T) {
	idx := NewIndex(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Resolve("head"))
}

func TestDepthPrefilterSkipsRayTest(t *testing.T) {
	camPos := math.V3(0, 0, 10)
	camDir := math.V3(0, 0, -1)

	target := &Entry{Name: "target", Bounds: picking.NewAABB(math.V3(-1, -1, -1), math.V3(1, 1, 1))}
	behind := &fakeMesh{name: "behind", hit: true,
		bounds: picking.NewAABB(math.V3(-1, -1, -6), math.V3(1, 1, -4))}
	candidate := &Entry{Name: behind.name, Handle: behind, Bounds: behind.bounds}

	assert.False(t, IsObstructing(candidate, target, camPos, camDir))
	assert.Zero(t, behind.calls)

	front := &fakeMesh{name: "front", hit: true,
		bounds: picking.NewAABB(math.V3(-1, -1, 4), math.V3(1, 1, 6))}
	candidate = &Entry{Name: front.name, Handle: front, Bounds: front.bounds}

	assert.True(t, IsObstructing(candidate, target, camPos, camDir))
	assert.Equal(t, 1, front.calls)
}

func TestIsObstructingGeometry(t *testing.T) {
	v := newTestViewer(t, lineup())
	camPos := math.V3(0, 0, 10)
	camDir := math.V3(0, 0, -1)
	target := entry(t, v, "target")

	assert.True(t, IsObstructing(entry(t, v, "front"), target, camPos, camDir))
	assert.False(t, IsObstructing(entry(t, v, "side"), target, camPos, camDir))
	assert.False(t, IsObstructing(entry(t, v, "back"), target, camPos, camDir))
}

func TestFocusHighlightsAndFades(t *testing.T) {
	v := newTestViewer(t, lineup())
	v.Camera().SetPose(math.V3(0, 0, 10), math.V3(0, 0, 0))

	res, err := v.Focus("TARGET", StatusActive, "high")
	require.NoError(t, err)
	assert.Equal(t, "target", res.Name)
	assert.Equal(t, []string{"front"}, res.Occluders)

	m := entry(t, v, "target").Handle.Material()
	assert.Equal(t, scene.Color{R: 1}, m.Diffuse)
	assert.InDelta(t, 0.3, m.Emissive.R, 1e-6)
	assert.Equal(t, float32(1), m.Alpha)

	assert.Equal(t, float32(0.2), alpha(t, v, "front"))
	assert.True(t, entry(t, v, "front").Handle.Material().Transparent)
	assert.Equal(t, float32(1), alpha(t, v, "side"))
	assert.Equal(t, float32(1), alpha(t, v, "back"))

	s := v.State()
	assert.Equal(t, "target", s.Focused)
	require.NotNil(t, s.Status)
	assert.Equal(t, StatusActive, *s.Status)
	assert.Equal(t, "high", s.Severity)
	assert.True(t, s.Animating)
}

func TestFocusFramesAndSettles(t *testing.T) {
	v := newTestViewer(t, lineup())
	v.Camera().SetPose(math.V3(0, 0, 10), math.V3(0, 0, 0))

	_, err := v.Focus("target", StatusPast, "")
	require.NoError(t, err)

	v.Tick(250 * time.Millisecond)
	assert.True(t, v.Animating())

	v.Tick(250 * time.Millisecond)
	assert.False(t, v.Animating())

	pose := v.Camera().Pose()
	want := float32(0.5*2.5) * math.V3(1, 1, 1).Length()
	assert.InDelta(t, want, pose.Distance, 1e-4)
	assert.InDelta(t, 0, pose.Target.X, 1e-5)
	assert.InDelta(t, want, pose.Position.Z, 1e-3)

	// Still between the new camera position and the target.
	assert.Equal(t, float32(0.2), alpha(t, v, "front"))
}

func TestRefreshOcclusionRestoresCleared(t *testing.T) {
	v := newTestViewer(t, lineup())
	v.Camera().SetPose(math.V3(0, 0, 10), math.V3(0, 0, 0))

	_, err := v.Focus("target", StatusActive, "")
	require.NoError(t, err)
	v.Tick(time.Second)
	require.Equal(t, float32(0.2), alpha(t, v, "front"))

	// Orbit to look from +X: the side box now blocks and the front box does not.
	v.Camera().SetPose(math.V3(10, 0.1, 0.1), math.V3(0, 0, 0))
	v.RefreshOcclusion()

	assert.Equal(t, float32(1), alpha(t, v, "front"))
	assert.False(t, entry(t, v, "front").Handle.Material().Transparent)
	assert.Equal(t, float32(0.2), alpha(t, v, "side"))
}

func TestFocusNotFoundLeavesStateAlone(t *testing.T) {
	v := newTestViewer(t, lineup())
	v.Camera().SetPose(math.V3(0, 0, 10), math.V3(0, 0, 0))

	_, err := v.Focus("target", StatusActive, "")
	require.NoError(t, err)
	before := *entry(t, v, "target").Handle.Material()

	_, err = v.Focus("spleen", StatusPast, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, before, *entry(t, v, "target").Handle.Material())
	assert.Equal(t, float32(0.2), alpha(t, v, "front"))
	assert.Equal(t, "target", v.State().Focused)
	assert.True(t, v.Animating())
}

func TestFocusWithoutModel(t *testing.T) {
	v := NewViewer(config.Default().Focus)

	_, err := v.Focus("head", StatusActive, "")
	assert.ErrorIs(t, err, ErrNotFound)

	v.ResetView()
	v.ClearFocus()
	v.Tick(time.Second)
	assert.Equal(t, 0, v.State().Meshes)
}

func TestFocusIsIdempotent(t *testing.T) {
	v := newTestViewer(t, lineup())
	v.Camera().SetPose(math.V3(0, 0, 10), math.V3(0, 0, 0))

	first, err := v.Focus("target", StatusOther, "")
	require.NoError(t, err)
	snapshot := map[string]scene.Material{}
	for _, e := range v.Index().Entries() {
		snapshot[e.Name] = *e.Handle.Material()
	}

	second, err := v.Focus("target", StatusOther, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for _, e := range v.Index().Entries() {
		assert.Equal(t, snapshot[e.Name], *e.Handle.Material(), e.Name)
	}
}

func TestRetargetDropsEarlierFocus(t *testing.T) {
	v := newTestViewer(t, lineup())
	v.Camera().SetPose(math.V3(0, 0, 10), math.V3(0, 0, 0))

	_, err := v.Focus("target", StatusActive, "")
	require.NoError(t, err)
	_, err = v.Focus("side", StatusPast, "")
	require.NoError(t, err)

	v.Tick(time.Second)

	assert.Equal(t, "side", v.State().Focused)
	target := entry(t, v, "target")
	assert.Equal(t, target.Original, target.Handle.Material())
	assert.Equal(t, float32(1), alpha(t, v, "front"))

	goal := entry(t, v, "side").Bounds.Center()
	assert.InDelta(t, goal.X, v.Camera().Center.X, 1e-5)
}

func TestClearFocusRoundTrip(t *testing.T) {
	v := newTestViewer(t, lineup())
	v.Camera().SetPose(math.V3(0, 0, 10), math.V3(0, 0, 0))

	_, err := v.Focus("target", StatusActive, "")
	require.NoError(t, err)
	v.ClearFocus()

	for _, e := range v.Index().Entries() {
		assert.Equal(t, e.Original, e.Handle.Material(), e.Name)
		assert.NotSame(t, e.Original, e.Handle.Material(), e.Name)
	}
	assert.Empty(t, v.State().Focused)
	assert.False(t, v.Animating())
}

func TestResetView(t *testing.T) {
	g := lineup()
	v := newTestViewer(t, g)

	_, err := v.Focus("side", StatusActive, "")
	require.NoError(t, err)
	v.Tick(100 * time.Millisecond)

	v.ResetView()
	assert.False(t, v.Animating())

	bounds := g.Bounds()
	center := bounds.Center()
	r := bounds.HalfExtent().Length()
	pose := v.Camera().Pose()

	assert.InDelta(t, center.X, pose.Target.X, 1e-4)
	assert.InDelta(t, center.Y, pose.Target.Y, 1e-4)
	assert.InDelta(t, center.Z, pose.Target.Z, 1e-4)
	assert.InDelta(t, center.X+2*r, pose.Position.X, 1e-3)
	assert.InDelta(t, center.Y+r, pose.Position.Y, 1e-3)
	assert.InDelta(t, center.Z+2*r, pose.Position.Z, 1e-3)

	// Focus survives a view reset.
	assert.Equal(t, "side", v.State().Focused)
}

func TestArmScenario(t *testing.T) {
	tests := []struct {
		name      string
		torsoLo   math.Vec3
		torsoHi   math.Vec3
		wantTorso float32
	}{
		{
			name:      "torso beside arm",
			torsoLo:   math.V3(-0.5, -0.8, -5.3),
			torsoHi:   math.V3(0.5, 0.7, -4.7),
			wantTorso: 1,
		},
		{
			name:      "torso between camera and arm",
			torsoLo:   math.V3(-2, -1.1, -3.3),
			torsoHi:   math.V3(2.2, 1.3, -2.7),
			wantTorso: 0.2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := scene.NewNode("body")
			root.AddChild(
				box("leftArm", math.V3(1, -0.4, -5.2), math.V3(1.5, 0.6, -4.8)),
				box("rightArm", math.V3(-1.5, -0.4, -5.2), math.V3(-1, 0.6, -4.8)),
				box("torso", tt.torsoLo, tt.torsoHi),
			)
			v := newTestViewer(t, scene.NewGraph(root))
			v.Camera().SetPose(math.V3(0, 0, 0), math.V3(0, 0, -5))

			_, err := v.Focus("leftArm", StatusActive, "")
			require.NoError(t, err)

			arm := entry(t, v, "leftArm").Handle.Material()
			assert.Equal(t, scene.Color{R: 1}, arm.Diffuse)
			assert.Equal(t, float32(1), arm.Alpha)
			assert.Equal(t, float32(1), alpha(t, v, "rightArm"))
			assert.Equal(t, tt.wantTorso, alpha(t, v, "torso"))
		})
	}
}

func TestSetModelDisposesPrevious(t *testing.T) {
	first := &fakeModel{
		meshes:     []*fakeMesh{{name: "head", mat: scene.DefaultMaterial(), bounds: picking.NewAABB(math.V3(0, 0, 0), math.V3(1, 1, 1))}},
		disposeErr: errors.New("gpu gone"),
	}
	v := newTestViewer(t, first)
	_, err := v.Focus("head", StatusActive, "")
	require.NoError(t, err)
	version := v.Version()

	second := &fakeModel{}
	v.SetModel(second, "empty")

	assert.Equal(t, 1, first.disposed)
	assert.Greater(t, v.Version(), version)
	assert.Empty(t, v.State().Focused)
	assert.False(t, v.Animating())
	assert.Equal(t, "empty", v.State().Source)

	_, err = v.Focus("head", StatusActive, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFocusMeshWithoutGeometry(t *testing.T) {
	root := scene.NewNode("root")
	ghost := scene.NewNode("ghost")
	ghost.Mesh = scene.NewMesh("ghost", nil, nil, nil)
	root.AddChild(box("torso", math.V3(-1, -1, -1), math.V3(1, 1, 1)), ghost)

	v := newTestViewer(t, scene.NewGraph(root))
	before := v.Camera().Pose()

	res, err := v.Focus("ghost", StatusActive, "")
	require.NoError(t, err)
	assert.Empty(t, res.Occluders)
	assert.False(t, v.Animating())
	assert.Equal(t, StatusActive.Color(), entry(t, v, "ghost").Handle.Material().Diffuse)

	v.Tick(time.Second)
	assert.Equal(t, before, v.Camera().Pose())
	_, err = json.Marshal(v.State())
	require.NoError(t, err)

	_, err = v.Focus("torso", StatusActive, "")
	require.NoError(t, err)
	v.Tick(time.Second)

	want := float32(2.5) * math.V3(1, 1, 1).Length()
	assert.InDelta(t, want, v.Camera().Pose().Distance, 1e-4)
	_, err = json.Marshal(v.State())
	require.NoError(t, err)
}

func TestFocusMeshByHandle(t *testing.T) {
	root := scene.NewNode("root")
	root.AddChild(
		box("Arm", math.V3(-3, -0.5, -0.5), math.V3(-2, 0.5, 0.5)),
		box("Arm", math.V3(2, -0.5, -0.5), math.V3(3, 0.5, 0.5)),
	)
	v := newTestViewer(t, scene.NewGraph(root))

	entries := v.Index().Entries()
	require.Len(t, entries, 2)
	first, second := entries[0], entries[1]

	res, err := v.FocusMesh(second.Handle, StatusActive, "severe")
	require.NoError(t, err)
	assert.Equal(t, "Arm", res.Name)

	focused, ok := v.Focused()
	require.True(t, ok)
	assert.Same(t, second, focused)
	assert.Equal(t, StatusActive.Color(), second.Handle.Material().Diffuse)
	assert.Equal(t, first.Original.Diffuse, first.Handle.Material().Diffuse)

	v.Tick(time.Second)
	assert.InDelta(t, 2.5, v.Camera().Pose().Target.X, 1e-4)
}

func TestFocusMeshUnknownHandle(t *testing.T) {
	v := newTestViewer(t, lineup())

	_, err := v.FocusMesh(&fakeMesh{name: "target"}, StatusActive, "")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, ok := v.Focused()
	assert.False(t, ok)
}

func TestFrameGoalStaysInZoomLimits(t *testing.T) {
	cam := camera.NewOrbitCamera()
	f := Framer{DistanceMultiplier: 2.5, Duration: time.Second}

	tests := []struct {
		name       string
		bounds     picking.AABB
		wantCenter math.Vec3
		wantDist   float32
	}{
		{"tiny", picking.AABB{Min: math.V3(0, 0, 0), Max: math.V3(0.001, 0.001, 0.001)}, math.V3(0.0005, 0.0005, 0.0005), cam.MinDistance},
		{"huge", picking.AABB{Min: math.V3(-500, -500, -500), Max: math.V3(500, 500, 500)}, math.V3(0, 0, 0), cam.MaxDistance},
		{"empty", picking.EmptyAABB(), cam.Center, cam.Distance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			center, dist := f.Frame(tt.bounds, cam, nil).Goal()
			assert.InDelta(t, tt.wantDist, dist, 1e-5)
			assert.InDelta(t, tt.wantCenter.X, center.X, 1e-6)
			assert.InDelta(t, tt.wantCenter.Z, center.Z, 1e-6)
		})
	}
}
