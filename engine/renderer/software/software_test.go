package software

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

const size = 64

var (
	red   = math.NewVec3(1, 0, 0)
	green = math.NewVec3(0, 1, 0)
	sky   = math.NewVec3(0.2, 0.3, 0.3)
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

type drawable struct {
	mesh     *geometry.Mesh
	position math.Vec3
}

func newBackend(t *testing.T, supersample int, cull metadata.FaceCullMode) *Backend {
	t.Helper()
	b := New(Options{Supersample: supersample})
	err := b.Initialize(&metadata.RendererBackendConfig{
		ApplicationName: "test",
		Width:           size,
		Height:          size,
		ClearColour:     sky,
		CullMode:        cull,
	})
	if err != nil {
		t.Fatal(err)
	}
	view := math.NewMat4LookAt(math.NewVec3(0, 0, 5), math.NewVec3Zero(), math.NewVec3Up())
	proj := math.NewMat4Perspective(math.DegToRad(45), 1, 0.1, 100)
	b.SetView(view, proj)
	return b
}

func render(t *testing.T, b *Backend, items ...drawable) *image.RGBA {
	t.Helper()
	if err := b.BeginFrame(0); err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		g := &metadata.Geometry{Name: it.mesh.Name}
		if err := b.CreateGeometry(g, it.mesh); err != nil {
			t.Fatal(err)
		}
		b.DrawGeometry(metadata.GeometryRenderData{
			Model:    math.NewMat4Translation(it.position),
			Geometry: g,
		})
	}
	if err := b.EndFrame(0); err != nil {
		t.Fatal(err)
	}
	return b.Image()
}

func mustCube(t *testing.T, s float32, c math.Vec3) *geometry.Mesh {
	t.Helper()
	m, err := geometry.GenerateCube(geometry.CubeParams{Size: s, Color: c})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// triangle facing +Z, or -Z when flipped
func triangle(c math.Vec3, flipped bool) *geometry.Mesh {
	m := &geometry.Mesh{
		Name:   "triangle",
		Format: geometry.FormatPositionColor,
		Vertices: []float32{
			-1, -1, 0, c.X, c.Y, c.Z,
			1, -1, 0, c.X, c.Y, c.Z,
			0, 1, 0, c.X, c.Y, c.Z,
		},
		Indices: []uint32{0, 1, 2},
	}
	if flipped {
		m.Indices = []uint32{0, 2, 1}
	}
	return m
}

func rgba(c math.Vec3) color.RGBA {
	return color.RGBA{R: toByte(c.X), G: toByte(c.Y), B: toByte(c.Z), A: 0xff}
}

func TestClearColourFillsFrame(t *testing.T) {
	img := render(t, newBackend(t, 2, metadata.FaceCullModeBack))
	want := rgba(sky)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestCubeColoursCenter(t *testing.T) {
	for _, ss := range []int{1, 2, 3} {
		img := render(t, newBackend(t, ss, metadata.FaceCullModeBack), drawable{mesh: mustCube(t, 1, red)})
		if got := img.RGBAAt(size/2, size/2); got != rgba(red) {
			t.Fatalf("supersample %d: center = %v, want red", ss, got)
		}
		if got := img.RGBAAt(0, 0); got != rgba(sky) {
			t.Fatalf("supersample %d: corner = %v, want clear colour", ss, got)
		}
	}
}

func TestBackFacesCulled(t *testing.T) {
	tests := []struct {
		name    string
		cull    metadata.FaceCullMode
		flipped bool
		drawn   bool
	}{
		{"front face, cull back", metadata.FaceCullModeBack, false, true},
		{"back face, cull back", metadata.FaceCullModeBack, true, false},
		{"back face, no culling", metadata.FaceCullModeNone, true, true},
		{"front face, cull front", metadata.FaceCullModeFront, false, false},
		{"front face, cull both", metadata.FaceCullModeFrontAndBack, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := render(t, newBackend(t, 1, tt.cull), drawable{mesh: triangle(red, tt.flipped)})
			got := img.RGBAAt(size/2, size/2) == rgba(red)
			if got != tt.drawn {
				t.Fatalf("drawn = %v, want %v", got, tt.drawn)
			}
		})
	}
}

func TestDepthKeepsNearerSurface(t *testing.T) {
	near := drawable{mesh: mustCube(t, 1, red), position: math.NewVec3(0, 0, 1)}
	far := drawable{mesh: mustCube(t, 3, green), position: math.NewVec3(0, 0, -2)}

	for _, order := range [][]drawable{{near, far}, {far, near}} {
		img := render(t, newBackend(t, 1, metadata.FaceCullModeBack), order...)
		if got := img.RGBAAt(size/2, size/2); got != rgba(red) {
			t.Fatalf("center = %v, want the nearer red cube", got)
		}
		// the far cube is larger and still shows around the near one
		if got := img.RGBAAt(size/2, size/2-14); got != rgba(green) {
			t.Fatalf("above center = %v, want green", got)
		}
	}
}

func TestNearPlaneClipping(t *testing.T) {
	ground, err := geometry.GeneratePlane(geometry.PlaneParams{Size: 100, Segments: 4, Color: green})
	if err != nil {
		t.Fatal(err)
	}
	img := render(t, newBackend(t, 1, metadata.FaceCullModeBack), drawable{mesh: ground, position: math.NewVec3(0, -1, 0)})
	if got := img.RGBAAt(size/2, size-1); got != rgba(green) {
		t.Fatalf("bottom row = %v, want ground", got)
	}
	if got := img.RGBAAt(size/2, 0); got != rgba(sky) {
		t.Fatalf("top row = %v, want sky", got)
	}
}

func TestWireframe(t *testing.T) {
	b := New(Options{})
	_ = b.Initialize(&metadata.RendererBackendConfig{
		Width:       size,
		Height:      size,
		ClearColour: sky,
		CullMode:    metadata.FaceCullModeBack,
		PolygonMode: metadata.PolygonModeLine,
	})
	b.SetView(
		math.NewMat4LookAt(math.NewVec3(0, 0, 5), math.NewVec3Zero(), math.NewVec3Up()),
		math.NewMat4Perspective(math.DegToRad(45), 1, 0.1, 100),
	)
	img := render(t, b, drawable{mesh: mustCube(t, 2, red)})
	// off both diagonals of the front face
	if got := img.RGBAAt(size/2+10, size/2-2); got != rgba(sky) {
		t.Fatalf("wireframe filled the face interior: %v", got)
	}
	var edges int
	for x := 0; x < size; x++ {
		if img.RGBAAt(x, size/2) == rgba(red) {
			edges++
		}
	}
	if edges == 0 {
		t.Fatalf("no edge pixels on the center row")
	}
}

func TestFrameLifecycle(t *testing.T) {
	b := New(Options{})
	if err := b.BeginFrame(0); !errors.Is(err, core.ErrBackendNotInitialized) {
		t.Fatalf("expected ErrBackendNotInitialized, got %v", err)
	}
	_ = b.Initialize(&metadata.RendererBackendConfig{Width: size, Height: size})
	if err := b.EndFrame(0); err == nil {
		t.Fatalf("EndFrame without BeginFrame should fail")
	}
	if err := b.Resized(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.BeginFrame(0); !errors.Is(err, core.ErrSwapchainBooting) {
		t.Fatalf("expected ErrSwapchainBooting, got %v", err)
	}
	if err := b.Resized(32, 16); err != nil {
		t.Fatal(err)
	}
	img := render(t, b)
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Fatalf("frame is %v after resize", img.Bounds())
	}

	g := &metadata.Geometry{}
	if err := b.CreateGeometry(g, &geometry.Mesh{Format: geometry.FormatPositionColor, Vertices: []float32{0, 0, 0}}); err == nil {
		t.Fatalf("expected invalid mesh error")
	}
	_ = b.CreateGeometry(g, triangle(red, false))
	b.DestroyGeometry(g)
	if g.InternalID != metadata.InvalidID {
		t.Fatalf("internal id not reset")
	}
	if err := b.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteImage(t *testing.T) {
	b := newBackend(t, 1, metadata.FaceCullModeBack)
	render(t, b, drawable{mesh: mustCube(t, 1, red)})
	dir := t.TempDir()

	decoders := map[string]func([]byte) (image.Image, error){
		"snap.png":  func(d []byte) (image.Image, error) { img, _, err := image.Decode(bytes.NewReader(d)); return img, err },
		"snap.bmp":  func(d []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(d)) },
		"snap.tiff": func(d []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(d)) },
		"snap.TIF":  func(d []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(d)) },
	}
	for name, decode := range decoders {
		path := filepath.Join(dir, name)
		if err := b.WriteImage(path); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		img, err := decode(data)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if img.Bounds().Dx() != size || img.Bounds().Dy() != size {
			t.Fatalf("%s: bounds %v", name, img.Bounds())
		}
		r, g, bl, _ := img.At(size/2, size/2).RGBA()
		if r>>8 != 0xff || g != 0 || bl != 0 {
			t.Fatalf("%s: center pixel not red", name)
		}
	}

	if err := b.WriteImage(filepath.Join(dir, "snap.jpg")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
