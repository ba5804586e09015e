package viewer

import (
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/orbis/engine"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/renderer"
	"github.com/spaghettifunk/orbis/engine/renderer/software"
	"github.com/spaghettifunk/orbis/engine/scene"
)

const twoShapes = `
[[shapes]]
name = "box"
kind = "cube"
size = 1.0
color = [1.0, 0.0, 0.0]
position = [0.0, 1.0, 0.0]

[[shapes]]
name = "ball"
kind = "sphere"
radius = 0.5
sectors = 8
stacks = 6
color = [0.0, 0.0, 1.0]
position = [2.0, 1.0, 0.0]
`

const oneShapeNoGround = `
[ground]
enabled = false

[[shapes]]
name = "box"
kind = "cube"
size = 2.0
color = [1.0, 1.0, 0.0]
position = [0.0, 1.0, 0.0]
`

const unknownKind = `
[[shapes]]
name = "pyramid"
kind = "pyramid"
color = [1.0, 1.0, 0.0]
`

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func headlessConfig() *engine.ApplicationConfig {
	config := engine.DefaultApplicationConfig()
	config.Renderer = renderer.Software
	config.AssetsDir = ""
	config.JobWorkers = 2
	config.LogLevel = core.GetLogLevel()
	return config
}

func writeScene(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func startViewer(t *testing.T, opts Options) (*SceneViewer, *engine.Engine) {
	t.Helper()
	v, err := New(headlessConfig(), opts)
	if err != nil {
		t.Fatal(err)
	}
	e, err := engine.New(v.Game)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := e.Shutdown(); err != nil {
			t.Error(err)
		}
	})
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	return v, e
}

func TestDefaultScene(t *testing.T) {
	v, e := startViewer(t, Options{Width: 64, Height: 48})

	if got := v.InstanceCount(); got != 11 {
		t.Fatalf("expected 11 instances, got %d", got)
	}
	// every default shape has its own colour
	if got := v.SystemManager.GeometrySystem.Count(); got != 11 {
		t.Fatalf("expected 11 geometries, got %d", got)
	}
	seen := make(map[uint32]bool)
	for _, m := range v.state().meshes {
		if seen[m.UniqueID] {
			t.Fatalf("mesh id %d handed out twice", m.UniqueID)
		}
		seen[m.UniqueID] = true
	}
	if w, h := e.GetFramebufferSize(); w != 64 || h != 48 {
		t.Fatalf("framebuffer %dx%d, want 64x48", w, h)
	}
	if e.Stage() != engine.EngineStageInitialized {
		t.Fatalf("stage %s", e.Stage())
	}
	if err := e.Frame(0.016); err != nil {
		t.Fatal(err)
	}
	if err := v.Reload(); err == nil {
		t.Fatal("expected the built-in scene to refuse reloading")
	}
}

func TestBootUsesSceneWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	writeScene(t, path, "[window]\ntitle = \"small\"\nwidth = 40\nheight = 30\n"+twoShapes)

	v, e := startViewer(t, Options{ScenePath: path})
	if w, h := e.GetFramebufferSize(); w != 40 || h != 30 {
		t.Fatalf("framebuffer %dx%d, want 40x30", w, h)
	}
	if v.ApplicationConfig.Name != "small" {
		t.Fatalf("window title %q", v.ApplicationConfig.Name)
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	writeScene(t, path, twoShapes)

	v, e := startViewer(t, Options{ScenePath: path, Width: 32, Height: 32})
	if got := v.InstanceCount(); got != 3 {
		t.Fatalf("expected ground and 2 shapes, got %d instances", got)
	}

	writeScene(t, path, oneShapeNoGround)
	if err := v.Reload(); err != nil {
		t.Fatal(err)
	}
	if got := v.InstanceCount(); got != 1 {
		t.Fatalf("expected 1 instance after reload, got %d", got)
	}
	if got := v.SystemManager.GeometrySystem.Count(); got != 1 {
		t.Fatalf("old geometries not released, %d registered", got)
	}
	if v.Scene().Ground.Enabled {
		t.Fatal("reloaded scene still has a ground")
	}
	if m := v.state().meshes[0]; m.Name != "box" || m.Generation != 1 {
		t.Fatalf("unexpected mesh %q of generation %d", m.Name, m.Generation)
	}
	// the new mesh is acquired while the old three still hold ids 0..2
	if m := v.state().meshes[0]; m.UniqueID != 3 {
		t.Fatalf("expected id 3, got %d", m.UniqueID)
	}
	if owner := v.state().ids.Owner(0); owner != nil {
		t.Fatal("id of a released mesh is still taken")
	}

	writeScene(t, path, unknownKind)
	if err := v.Reload(); !errors.Is(err, scene.ErrInvalidScene) {
		t.Fatalf("expected ErrInvalidScene, got %v", err)
	}
	if got := v.InstanceCount(); got != 1 || v.state().generation != 1 {
		t.Fatalf("failed reload changed the scene, %d instances", got)
	}
	if err := e.Frame(0.016); err != nil {
		t.Fatal(err)
	}
}

func TestAssetChangeReloadsOnUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	writeScene(t, path, twoShapes)

	v, e := startViewer(t, Options{ScenePath: path, Watch: true, Width: 32, Height: 32})
	writeScene(t, path, oneShapeNoGround)

	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatal(err)
	}
	// other files are ignored
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_ASSET_CHANGED,
		Data: &core.AssetEvent{Path: abs + ".bak"},
	})
	if err := e.Frame(0.016); err != nil {
		t.Fatal(err)
	}
	if got := v.InstanceCount(); got != 3 {
		t.Fatalf("unrelated change reloaded the scene: %d instances", got)
	}

	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_ASSET_CHANGED,
		Data: &core.AssetEvent{Path: abs},
	})
	if got := v.InstanceCount(); got != 3 {
		t.Fatalf("reload must wait for the next update, got %d instances", got)
	}
	if err := e.Frame(0.016); err != nil {
		t.Fatal(err)
	}
	if got := v.InstanceCount(); got != 1 {
		t.Fatalf("expected 1 instance after reload, got %d", got)
	}
}

func TestSnapshot(t *testing.T) {
	out := filepath.Join(t.TempDir(), "snap.png")
	if err := Snapshot(headlessConfig(), Options{Width: 160, Height: 120}, out); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 120 {
		t.Fatalf("bounds %v", img.Bounds())
	}

	// the top of the frame is above the far edge of the ground
	r, g, b, _ := img.At(2, 2).RGBA()
	if !near(r>>8, 51) || !near(g>>8, 77) || !near(b>>8, 77) {
		t.Fatalf("top left pixel (%d, %d, %d) is not the clear colour", r>>8, g>>8, b>>8)
	}
	// the bottom center looks down onto the ground
	r, g, b, _ = img.At(80, 117).RGBA()
	if r>>8 > 30 || g>>8 < 150 || b>>8 > 30 {
		t.Fatalf("bottom center pixel (%d, %d, %d) is not the ground", r>>8, g>>8, b>>8)
	}
}

func near(got uint32, want uint32) bool {
	return got+2 >= want && got <= want+2
}

func TestSnapshotUnsupportedFormat(t *testing.T) {
	out := filepath.Join(t.TempDir(), "snap.jpg")
	err := Snapshot(headlessConfig(), Options{Width: 32, Height: 32}, out)
	if !errors.Is(err, software.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
