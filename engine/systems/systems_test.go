package systems

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/components"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeUploader struct {
	mu        sync.Mutex
	created   int
	destroyed int
	failNext  bool
}

func (f *fakeUploader) CreateGeometry(g *metadata.Geometry, mesh *geometry.Mesh) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("upload failed")
	}
	f.created++
	g.InternalID = uint32(f.created)
	return nil
}

func (f *fakeUploader) DestroyGeometry(g *metadata.Geometry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
}

func TestNewJobSystemValidation(t *testing.T) {
	if _, err := NewJobSystem(0, 1); !errors.Is(err, ErrNoWorkers) {
		t.Fatalf("expected ErrNoWorkers, got %v", err)
	}
	if _, err := NewJobSystem(1, -1); !errors.Is(err, ErrNegativeChannelSize) {
		t.Fatalf("expected ErrNegativeChannelSize, got %v", err)
	}
}

func TestJobSystemRunsAllJobs(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	if err != nil {
		t.Fatal(err)
	}

	var completed, failed int64
	for i := 0; i < 100; i++ {
		err := js.Submit(metadata.JobTask{
			InputParams: i,
			OnStart: func(params interface{}) (interface{}, error) {
				if params.(int)%10 == 0 {
					return nil, errors.New("boom")
				}
				return params.(int) * 2, nil
			},
			OnComplete: func(interface{}) { atomic.AddInt64(&completed, 1) },
			OnFailure:  func(error) { atomic.AddInt64(&failed, 1) },
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if completed != 90 || failed != 10 {
		t.Fatalf("completed=%d failed=%d", completed, failed)
	}
	if err := js.Submit(metadata.JobTask{OnStart: func(interface{}) (interface{}, error) { return nil, nil }}); !errors.Is(err, ErrJobSystemClosed) {
		t.Fatalf("expected ErrJobSystemClosed, got %v", err)
	}
	if err := js.Shutdown(); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestJobSystemRecoversPanics(t *testing.T) {
	js, _ := NewJobSystem(1, 1)
	failed := make(chan error, 1)
	_ = js.Submit(metadata.JobTask{
		OnStart:   func(interface{}) (interface{}, error) { panic("bad job") },
		OnFailure: func(err error) { failed <- err },
	})
	select {
	case err := <-failed:
		if err == nil {
			t.Fatalf("nil error for panicking job")
		}
	case <-time.After(time.Second):
		t.Fatalf("panicking job did not report failure")
	}
	_ = js.Shutdown()
}

func TestJobSystemNonBlocking(t *testing.T) {
	js, _ := NewJobSystem(1, 0)
	release := make(chan struct{})
	started := make(chan struct{})
	_ = js.Submit(metadata.JobTask{OnStart: func(interface{}) (interface{}, error) {
		close(started)
		<-release
		return nil, nil
	}})
	<-started

	noop := metadata.JobTask{OnStart: func(interface{}) (interface{}, error) { return nil, nil }}
	if err := js.SubmitNonBlocking(noop); !errors.Is(err, ErrJobQueueFull) {
		t.Fatalf("expected ErrJobQueueFull, got %v", err)
	}
	if err := js.SubmitNonBlocking(metadata.JobTask{}); !errors.Is(err, ErrInvalidJob) {
		t.Fatalf("expected ErrInvalidJob, got %v", err)
	}
	close(release)
	_ = js.Shutdown()
}

func TestGeometrySystemSharesKeys(t *testing.T) {
	up := &fakeUploader{}
	gs, err := NewGeometrySystem(&GeometrySystemConfig{MaxGeometryCount: 8}, up)
	if err != nil {
		t.Fatal(err)
	}

	sphere := geometry.SphereParams{Radius: 1, Sectors: 30, Stacks: 30, Color: math.NewVec3(1, 0, 0)}
	a, err := gs.Acquire(sphere)
	if err != nil {
		t.Fatal(err)
	}
	b, err := gs.Acquire(sphere)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("equal shapes got different geometries")
	}
	if up.created != 1 {
		t.Fatalf("uploaded %d times, want 1", up.created)
	}
	if a.IndexCount != uint32(6*30*29) || a.VertexCount != 31*31 {
		t.Fatalf("geometry counts %d/%d", a.VertexCount, a.IndexCount)
	}
	if a.Format != geometry.FormatPositionColorNormalUV {
		t.Fatalf("format %s", a.Format)
	}
	if gs.ReferenceCount(a) != 2 {
		t.Fatalf("reference count %d", gs.ReferenceCount(a))
	}

	cube, err := gs.Acquire(geometry.CubeParams{Size: 1, Color: math.NewVec3(0, 1, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if cube.ID == a.ID {
		t.Fatalf("distinct shapes share slot %d", cube.ID)
	}

	gs.Release(a)
	if up.destroyed != 0 {
		t.Fatalf("destroyed while still referenced")
	}
	gs.Release(b)
	if up.destroyed != 1 || a.ID != metadata.InvalidID {
		t.Fatalf("destroyed=%d id=%d after last release", up.destroyed, a.ID)
	}
	if gs.Count() != 1 {
		t.Fatalf("count = %d, want 1", gs.Count())
	}

	if err := gs.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if up.destroyed != 2 || gs.Count() != 0 {
		t.Fatalf("shutdown left destroyed=%d count=%d", up.destroyed, gs.Count())
	}
}

func TestGeometrySystemCapacity(t *testing.T) {
	gs, _ := NewGeometrySystem(&GeometrySystemConfig{MaxGeometryCount: 1}, &fakeUploader{})
	if _, err := gs.Acquire(geometry.CubeParams{Size: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := gs.Acquire(geometry.CubeParams{Size: 2}); !errors.Is(err, ErrGeometryCapacity) {
		t.Fatalf("expected ErrGeometryCapacity, got %v", err)
	}
}

func TestGeometrySystemErrors(t *testing.T) {
	up := &fakeUploader{}
	gs, _ := NewGeometrySystem(&GeometrySystemConfig{MaxGeometryCount: 2}, up)

	if _, err := gs.Acquire(geometry.SphereParams{Radius: 1, Sectors: 1, Stacks: 1}); !errors.Is(err, geometry.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}

	up.failNext = true
	if _, err := gs.Acquire(geometry.CubeParams{Size: 1}); err == nil {
		t.Fatalf("expected upload error")
	}
	if gs.Count() != 0 {
		t.Fatalf("failed upload left a registration")
	}
	// the slot is reusable after a failed upload
	if _, err := gs.Acquire(geometry.CubeParams{Size: 1}); err != nil {
		t.Fatal(err)
	}

	if _, err := NewGeometrySystem(&GeometrySystemConfig{}, up); err == nil {
		t.Fatalf("expected error for zero capacity")
	}
}

func TestCameraSystem(t *testing.T) {
	cs, err := NewCameraSystem(&CameraSystemConfig{MaxCameraCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	def, _ := cs.Acquire(components.DEFAULT_CAMERA_NAME)
	if def != cs.DefaultCamera {
		t.Fatalf("default camera mismatch")
	}
	a, err := cs.Acquire("overview")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := cs.Acquire("overview")
	if a != b {
		t.Fatalf("same name gave different cameras")
	}
	if _, err := cs.Acquire("other"); err == nil {
		t.Fatalf("expected no free slot")
	}
	cs.Release("overview")
	cs.Release("overview")
	if _, err := cs.Acquire("other"); err != nil {
		t.Fatalf("slot not freed: %v", err)
	}
}
