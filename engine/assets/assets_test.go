package assets

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
	"github.com/spaghettifunk/orbis/engine/scene"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func spirv(words ...uint32) []byte {
	out := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(out, 0x07230203)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*(i+1):], w)
	}
	return out
}

func newManager(t *testing.T, dir string) *AssetManager {
	t.Helper()
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = am.Shutdown() })
	return am
}

func TestIndexAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shaders", "flat.vert.spv"), spirv(0x00010000, 42))
	writeFile(t, filepath.Join(dir, "scenes", "default.toml"), []byte("[[shapes]]\nkind = \"cube\"\nsize = 1.0\n"))
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("ignored"))

	am := newManager(t, dir)
	if am.Count() != 2 {
		t.Fatalf("indexed %d assets, want 2", am.Count())
	}
	if info, ok := am.Asset("shaders/flat.vert.spv"); !ok || info.Type != metadata.ResourceTypeShader {
		t.Fatalf("shader not indexed: %+v", info)
	}

	res, err := am.LoadAsset("flat.vert", metadata.ResourceTypeShader)
	if err != nil {
		t.Fatal(err)
	}
	code := res.Data.([]uint32)
	if len(code) != 3 || code[2] != 42 || res.DataSize != 12 {
		t.Fatalf("unexpected shader data %v (%d bytes)", code, res.DataSize)
	}
	if res.Name != "flat.vert" {
		t.Fatalf("shader name %q", res.Name)
	}
	if err := am.UnloadAsset(res); err != nil || res.Data != nil {
		t.Fatalf("unload left data: %v", err)
	}

	res, err = am.LoadAsset("scenes/default.toml", metadata.ResourceTypeScene)
	if err != nil {
		t.Fatal(err)
	}
	cfg := res.Data.(*scene.Config)
	if len(cfg.Shapes) != 1 || cfg.Shapes[0].Kind != scene.KindCube {
		t.Fatalf("unexpected scene %+v", cfg.Shapes)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shaders", "bad.spv"), []byte{1, 2, 3, 4})
	writeFile(t, filepath.Join(dir, "shaders", "short.spv"), []byte{1, 2, 3})
	writeFile(t, filepath.Join(dir, "broken.toml"), []byte("[[shapes]]\nkind = \"torus\"\n"))
	am := newManager(t, dir)

	tests := []struct {
		name string
		kind metadata.ResourceType
	}{
		{"bad", metadata.ResourceTypeShader},
		{"short", metadata.ResourceTypeShader},
		{"missing", metadata.ResourceTypeShader},
		{"broken.toml", metadata.ResourceTypeScene},
		{"broken.toml", metadata.ResourceTypeNone},
	}
	for _, tt := range tests {
		if _, err := am.LoadAsset(tt.name, tt.kind); err == nil {
			t.Errorf("%s as %s: expected error", tt.name, tt.kind)
		}
	}

	_, err := am.LoadAsset("broken.toml", metadata.ResourceTypeScene)
	if !errors.Is(err, scene.ErrInvalidScene) {
		t.Fatalf("expected ErrInvalidScene, got %v", err)
	}
}

func TestWatchFilePostsChange(t *testing.T) {
	if !core.EventSystemInitialize() {
		t.Fatal("event system already initialized")
	}
	defer core.EventSystemShutdown()

	changed := make(chan string, 4)
	core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, func(ctx core.EventContext) bool {
		changed <- ctx.Data.(*core.AssetEvent).Path
		return true
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	writeFile(t, path, []byte("# empty\n"))

	am := newManager(t, "")
	if err := am.WatchFile(path); err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, []byte("[window]\nwidth = 640\n"))

	want, _ := filepath.Abs(path)
	deadline := time.After(5 * time.Second)
	for {
		core.ProcessEvents()
		select {
		case got := <-changed:
			if got != want {
				t.Fatalf("changed %s, want %s", got, want)
			}
			if err := am.UnwatchFile(path); err != nil {
				t.Fatal(err)
			}
			return
		case <-deadline:
			t.Fatal("no change notification")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatchFileReportsFinalContent(t *testing.T) {
	if !core.EventSystemInitialize() {
		t.Fatal("event system already initialized")
	}
	defer core.EventSystemShutdown()

	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	writeFile(t, path, []byte("# v1\n"))

	var contents []string
	core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, func(ctx core.EventContext) bool {
		data, err := os.ReadFile(ctx.Data.(*core.AssetEvent).Path)
		if err != nil {
			t.Errorf("read on change: %s", err)
		}
		contents = append(contents, string(data))
		return true
	})

	am := newManager(t, "")
	if err := am.WatchFile(path); err != nil {
		t.Fatal(err)
	}

	// editors often truncate first and write the new content separately
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	pump := func(d time.Duration) {
		end := time.Now().Add(d)
		for time.Now().Before(end) {
			core.ProcessEvents()
			time.Sleep(5 * time.Millisecond)
		}
	}
	pump(20 * time.Millisecond)
	writeFile(t, path, []byte("# v2 final\n"))

	deadline := time.Now().Add(5 * time.Second)
	for len(contents) == 0 && time.Now().Before(deadline) {
		pump(10 * time.Millisecond)
	}
	// later stray events of the same save must not report again
	pump(3 * changeDebounce)

	if len(contents) != 1 {
		t.Fatalf("expected 1 notification, got %d: %q", len(contents), contents)
	}
	if contents[0] != "# v2 final\n" {
		t.Fatalf("notified with content %q, want the final write", contents[0])
	}
}

func TestShutdown(t *testing.T) {
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(t.TempDir()); !errors.Is(err, ErrAssetManagerClosed) {
		t.Fatalf("expected ErrAssetManagerClosed, got %v", err)
	}
	if err := am.WatchFile(filepath.Join(t.TempDir(), "x.toml")); !errors.Is(err, ErrAssetManagerClosed) {
		t.Fatalf("expected ErrAssetManagerClosed, got %v", err)
	}
}
