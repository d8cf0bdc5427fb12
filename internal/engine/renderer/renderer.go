// Package renderer draws the viewer's model with OpenGL.
package renderer

import (
	"fmt"
	gomath "math"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/engine/camera"
	"github.com/Faultbox/bodyview/internal/engine/debug"
	"github.com/Faultbox/bodyview/internal/engine/lighting"
	"github.com/Faultbox/bodyview/internal/engine/picking"
	"github.com/Faultbox/bodyview/internal/engine/renderer/shaders"
	"github.com/Faultbox/bodyview/internal/engine/shader"
	"github.com/Faultbox/bodyview/internal/focus"
	"github.com/Faultbox/bodyview/internal/logger"
	"github.com/Faultbox/bodyview/internal/scene"
	"github.com/Faultbox/bodyview/pkg/math"
)

const (
	nearPlane = 0.01
	farPlane  = 1000
)

var (
	lightDir      = lighting.Key(210, 55)
	focusBoxColor = [4]float32{1, 1, 1, 0.9}
)

type gpuMesh struct {
	vao, vbo uint32
	count    int32
}

// Renderer draws meshes, their materials and the focus box.
// It must be created after the OpenGL context.
type Renderer struct {
	width, height int
	fovY          float32 // radians

	meshProgram *shader.Program
	lineProgram *shader.Program
	lineVAO     uint32
	lineVBO     uint32

	version uint64
	gpu     map[*scene.Mesh]*gpuMesh
	log     *zap.Logger
}

// New creates a renderer for a width x height framebuffer. fov is the
// vertical field of view in degrees.
func New(width, height int, fov float32) (*Renderer, error) {
	r := &Renderer{
		width:  width,
		height: height,
		fovY:   fov * gomath.Pi / 180,
		gpu:    make(map[*scene.Mesh]*gpuMesh),
		log:    logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(width), int32(height))

	var err error
	r.meshProgram, err = shader.Compile("mesh", shaders.MeshVertexShader, shaders.MeshFragmentShader)
	if err != nil {
		return nil, err
	}
	r.lineProgram, err = shader.Compile("line", shaders.LineVertexShader, shaders.LineFragmentShader)
	if err != nil {
		r.meshProgram.Delete()
		return nil, err
	}
	r.createLineBuffer()

	return r, nil
}

// Close releases programs and line buffers. Mesh buffers are released with
// their model.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
	}
	if r.lineVBO != 0 {
		gl.DeleteBuffers(1, &r.lineVBO)
	}
	r.meshProgram.Delete()
	r.lineProgram.Delete()
}

// Resize handles framebuffer resize.
func (r *Renderer) Resize(width, height int) {
	r.width = width
	r.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// ViewProj returns the combined view-projection matrix for cam.
func (r *Renderer) ViewProj(cam *camera.OrbitCamera) math.Mat4 {
	aspect := float32(1)
	if r.height > 0 {
		aspect = float32(r.width) / float32(r.height)
	}
	return math.Perspective(r.fovY, aspect, nearPlane, farPlane).Mul(cam.ViewMatrix())
}

// ScreenRay returns the world ray under a pointer at (x, y) in a window of
// size w x h.
func (r *Renderer) ScreenRay(cam *camera.OrbitCamera, x, y, w, h int) picking.Ray {
	inv := r.ViewProj(cam).Inverse()
	return picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), inv)
}

// Render draws one frame of v. Opaque meshes go first, then faded ones
// back to front without depth writes, then the box around the focused mesh.
func (r *Renderer) Render(v *focus.Viewer) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	graph, ok := v.Model().(*scene.Graph)
	if !ok || graph == nil {
		return
	}
	r.sync(v.Version(), graph)

	cam := v.Camera()
	viewProj := r.ViewProj(cam)
	camPos := cam.Position()

	r.meshProgram.Use()
	r.meshProgram.SetMat4("uViewProj", viewProj)
	r.meshProgram.SetVec3("uLightDir", lightDir)
	r.meshProgram.SetVec3("uCameraPos", camPos)

	opaque, blended := drawOrder(graph.Meshes(), camPos)

	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	for _, m := range opaque {
		r.drawMesh(m)
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	for _, m := range blended {
		r.drawMesh(m)
	}
	gl.DepthMask(true)

	if e, ok := v.Focused(); ok {
		r.drawBox(viewProj, e.Bounds)
	}
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}

// ReadPixels returns the current framebuffer as RGBA rows, bottom row first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	pixels := make([]byte, r.width*r.height*4)
	if len(pixels) == 0 {
		return pixels, r.width, r.height
	}
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, r.width, r.height
}

// sync uploads meshes the GPU has not seen yet. A new model version drops
// the old table; the old model's release hooks already freed its buffers.
func (r *Renderer) sync(version uint64, graph *scene.Graph) {
	if version != r.version {
		r.version = version
		r.gpu = make(map[*scene.Mesh]*gpuMesh)
	}
	for _, m := range graph.Meshes() {
		if _, ok := r.gpu[m]; ok {
			continue
		}
		r.upload(m)
	}
}

func (r *Renderer) upload(m *scene.Mesh) {
	vertices := buildVertices(m)
	g := &gpuMesh{count: int32(len(vertices) / floatsPerVertex)}
	r.gpu[m] = g
	if g.count == 0 {
		return
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)
	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	m.OnRelease(func() error {
		delete(r.gpu, m)
		gl.DeleteVertexArrays(1, &g.vao)
		gl.DeleteBuffers(1, &g.vbo)
		if code := gl.GetError(); code != gl.NO_ERROR {
			return fmt.Errorf("gl error 0x%x", code)
		}
		return nil
	})

	r.log.Debug("mesh uploaded", zap.String("mesh", m.Name()), zap.Int32("vertices", g.count))
}

func (r *Renderer) drawMesh(m *scene.Mesh) {
	g := r.gpu[m]
	if g == nil || g.count == 0 {
		return
	}

	mat := m.Material()
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	p := r.meshProgram
	p.SetColor("uDiffuse", mat.Diffuse.R, mat.Diffuse.G, mat.Diffuse.B)
	p.SetColor("uSpecular", mat.Specular.R, mat.Specular.G, mat.Specular.B)
	p.SetColor("uEmissive", mat.Emissive.R, mat.Emissive.G, mat.Emissive.B)
	p.SetFloat("uShininess", mat.Shininess)
	p.SetFloat("uAlpha", mat.Alpha)

	gl.BindVertexArray(g.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, g.count)
}

func (r *Renderer) createLineBuffer() {
	gl.GenVertexArrays(1, &r.lineVAO)
	gl.BindVertexArray(r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferData(gl.ARRAY_BUFFER, debug.BBoxWireframeVertexCount*3*4, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (r *Renderer) drawBox(viewProj math.Mat4, box picking.AABB) {
	lines := debug.BoxLines(box, debug.DefaultBBoxPadding)
	if len(lines) == 0 {
		return
	}

	r.lineProgram.Use()
	r.lineProgram.SetMat4("uViewProj", viewProj)
	r.lineProgram.SetVec4("uColor", focusBoxColor)

	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(lines)*4, unsafe.Pointer(&lines[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.DrawArrays(gl.LINES, 0, debug.BBoxWireframeVertexCount)
}
