package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/bodyview/internal/engine/picking"
	"github.com/Faultbox/bodyview/pkg/math"
)

func TestBoxLines(t *testing.T) {
	box := picking.NewAABB(math.V3(0, 0, 0), math.V3(1, 2, 3))
	lines := BoxLines(box, 0.5)

	if len(lines) != BBoxWireframeVertexCount*3 {
		t.Fatalf("got %d floats, want %d", len(lines), BBoxWireframeVertexCount*3)
	}
	// First vertex is the padded minimum corner
	if lines[0] != -0.5 || lines[1] != -0.5 || lines[2] != -0.5 {
		t.Errorf("first vertex = %v, want padded min", lines[:3])
	}
	if lines[3] != 1.5 {
		t.Errorf("second vertex x = %v, want 1.5", lines[3])
	}

	if got := BoxLines(picking.EmptyAABB(), 1); got != nil {
		t.Errorf("empty box gave %d floats", len(got))
	}
}

func TestCaptureFromPixels(t *testing.T) {
	dir := t.TempDir()
	sc := NewScreenshotCapture(dir, "focus")
	sc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	// 1x2 image: bottom row red, top row blue (OpenGL order)
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := sc.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("CaptureFromPixels: %v", err)
	}
	if want := filepath.Join(dir, "focus_2026-01-02_03-04-05.000.png"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	r, _, b, _ := img.At(0, 0).RGBA()
	if b == 0 || r != 0 {
		t.Errorf("top-left pixel should be blue after flip")
	}

	if _, err := sc.CaptureFromPixels([]byte{1, 2, 3}, 1, 1); err == nil {
		t.Error("expected size mismatch error")
	}
}
