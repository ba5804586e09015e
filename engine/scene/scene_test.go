package scene

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
	"github.com/spaghettifunk/orbis/engine/systems"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func newJobs(t *testing.T) *systems.JobSystem {
	t.Helper()
	js, err := systems.NewJobSystem(4, 16)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = js.Shutdown() })
	return js
}

func TestDefaultScene(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	instances, err := Build(context.Background(), cfg, newJobs(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 11 {
		t.Fatalf("got %d instances, want 11", len(instances))
	}
	if instances[0].Name != GroundName {
		t.Fatalf("first instance is %s", instances[0].Name)
	}
	if n := instances[0].Mesh.VertexCount(); n != 4 {
		t.Fatalf("ground has %d vertices", n)
	}

	var spheres, cubes int
	for _, inst := range instances[1:] {
		switch inst.Mesh.Format {
		case geometry.FormatPositionColorNormalUV:
			spheres++
			if inst.Mesh.VertexCount() != 31*31 {
				t.Fatalf("%s has %d vertices", inst.Name, inst.Mesh.VertexCount())
			}
		case geometry.FormatPositionColor:
			cubes++
			if inst.Mesh.VertexCount() != 8 {
				t.Fatalf("%s has %d vertices", inst.Name, inst.Mesh.VertexCount())
			}
		}
	}
	if spheres != 5 || cubes != 5 {
		t.Fatalf("spheres=%d cubes=%d", spheres, cubes)
	}

	// the red cube sits at (9, 2, -1)
	model := instances[1].Transform.GetLocal()
	if got := math.NewVec3Zero().Transform(model); !got.Compare(math.NewVec3(9, 2, -1), 1e-6) {
		t.Fatalf("red cube at %v", got)
	}
}

func TestBuildSharesMeshes(t *testing.T) {
	cfg := Default()
	cfg.Shapes = append(cfg.Shapes, cfg.Shapes[0])
	cfg.Shapes[len(cfg.Shapes)-1].Name = "cube_red_copy"
	cfg.Shapes[len(cfg.Shapes)-1].Position = Vec3{0, 1, 0}

	instances, err := Build(context.Background(), cfg, newJobs(t))
	if err != nil {
		t.Fatal(err)
	}
	first, copied := instances[1], instances[len(instances)-1]
	if first.MeshKey != copied.MeshKey || first.Mesh != copied.Mesh {
		t.Fatalf("identical shapes did not share a mesh")
	}
	if first.Transform == copied.Transform {
		t.Fatalf("instances share a transform")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	js := newJobs(t)
	a, err := Build(context.Background(), Default(), js)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(context.Background(), Default(), js)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].Name != b[i].Name || !reflect.DeepEqual(a[i].Mesh, b[i].Mesh) {
			t.Fatalf("instance %d differs between builds", i)
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, Default(), newJobs(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildCancelledWhileQueueFull(t *testing.T) {
	js, err := systems.NewJobSystem(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	started := make(chan struct{})
	t.Cleanup(func() {
		close(release)
		_ = js.Shutdown()
	})
	block := metadata.JobTask{OnStart: func(interface{}) (interface{}, error) {
		close(started)
		<-release
		return nil, nil
	}}
	if err := js.Submit(block); err != nil {
		t.Fatal(err)
	}
	<-started
	// occupies the only queue slot
	if err := js.Submit(metadata.JobTask{OnStart: func(interface{}) (interface{}, error) { return nil, nil }}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	result := make(chan error, 1)
	go func() {
		_, err := Build(ctx, Default(), js)
		result <- err
	}()
	select {
	case err := <-result:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context.DeadlineExceeded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("build did not return after its context expired")
	}
}

func TestBuildAfterShutdown(t *testing.T) {
	js, _ := systems.NewJobSystem(1, 1)
	_ = js.Shutdown()
	if _, err := Build(context.Background(), Default(), js); !errors.Is(err, systems.ErrJobSystemClosed) {
		t.Fatalf("expected ErrJobSystemClosed, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	want := Default()
	if err := Save(want, path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip changed the scene:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeDefaults(t *testing.T) {
	doc := `
[camera]
fov = 60.0

[[shapes]]
kind = "Sphere"
radius = 2.0
color = [0.5, 0.5, 0.5]
position = [1.0, 2.0, 3.0]
`
	cfg, err := Decode([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Camera.Fov != 60 || cfg.Camera.Far != 100 || cfg.Window.Width != 800 {
		t.Fatalf("defaults not kept: %+v %+v", cfg.Camera, cfg.Window)
	}
	if !cfg.Ground.Enabled {
		t.Fatalf("ground should stay enabled")
	}
	s := cfg.Shapes[0]
	if s.Kind != KindSphere || s.Sectors != DefaultSphereDivisions || s.Stacks != DefaultSphereDivisions {
		t.Fatalf("sphere defaults not applied: %+v", s)
	}
	if !strings.HasPrefix(s.Name, "sphere-") {
		t.Fatalf("unnamed shape got name %q", s.Name)
	}
	if s.Scale != (Vec3{1, 1, 1}) {
		t.Fatalf("scale = %v", s.Scale)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		shape bool
	}{
		{"unknown kind", "[[shapes]]\nkind = \"torus\"\nsize = 1.0\n", false},
		{"negative radius", "[[shapes]]\nkind = \"sphere\"\nradius = -1.0\n", true},
		{"too few sectors", "[[shapes]]\nkind = \"sphere\"\nradius = 1.0\nsectors = 2\n", true},
		{"zero cube", "[[shapes]]\nkind = \"cube\"\n", true},
		{"color out of range", "[[shapes]]\nkind = \"cube\"\nsize = 1.0\ncolor = [2.0, 0.0, 0.0]\n", false},
		{"duplicate names", "[[shapes]]\nname = \"a\"\nkind = \"cube\"\nsize = 1.0\n[[shapes]]\nname = \"a\"\nkind = \"cube\"\nsize = 2.0\n", false},
		{"bad camera", "[camera]\nnear = 10.0\nfar = 1.0\n", false},
		{"up along view", "[camera]\nposition = [0.0, 5.0, 0.0]\ntarget = [0.0, 0.0, 0.0]\nup = [0.0, 1.0, 0.0]\n", false},
		{"up against view", "[camera]\nposition = [0.0, 0.0, 3.0]\ntarget = [0.0, 0.0, 1.0]\nup = [0.0, 0.0, 2.0]\n", false},
		{"bad ground", "[ground]\nsegments = 0\n", true},
		{"unknown key", "[render]\nshadows = true\n", false},
		{"syntax", "[window\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidScene) {
				t.Fatalf("expected ErrInvalidScene, got %v", err)
			}
			if tt.shape && !errors.Is(err, geometry.ErrInvalidShape) {
				t.Fatalf("expected ErrInvalidShape in %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestGroundDisabled(t *testing.T) {
	cfg := Default()
	cfg.Ground.Enabled = false
	instances, err := Build(context.Background(), cfg, newJobs(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 10 || instances[0].Name == GroundName {
		t.Fatalf("ground should be skipped")
	}
}
