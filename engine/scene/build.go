package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

// GroundName is the instance name of the ground plane.
const GroundName = "ground"

// JobSubmitter queues work on a worker pool, such as systems.JobSystem.
// It returns metadata.ErrJobQueueFull instead of blocking.
type JobSubmitter interface {
	SubmitNonBlocking(jt metadata.JobTask) error
}

// How long to wait before offering a job to a full queue again.
const submitRetry = 2 * time.Millisecond

// Instance is a generated mesh placed in the world. Instances whose shapes
// have the same key share the same Mesh.
type Instance struct {
	Name      string
	MeshKey   string
	Transform *math.Transform
	Mesh      *geometry.Mesh
}

type placement struct {
	name      string
	shape     geometry.Shape
	transform *math.Transform
}

func (c *Config) placements() ([]placement, error) {
	out := make([]placement, 0, len(c.Shapes)+1)
	if c.Ground.Enabled {
		shape, err := c.GroundShape()
		if err != nil {
			return nil, fmt.Errorf("%w: ground: %w", ErrInvalidScene, err)
		}
		out = append(out, placement{name: GroundName, shape: shape, transform: math.TransformCreate()})
	}
	for i, s := range c.Shapes {
		shape, err := s.Shape()
		if err != nil {
			return nil, fmt.Errorf("%w: shape %d (%s): %w", ErrInvalidScene, i, s.Name, err)
		}
		out = append(out, placement{name: s.Name, shape: shape, transform: s.Transform()})
	}
	return out, nil
}

/**
 * @brief Generates the meshes of the scene on the job system, one job per
 * distinct shape. The ground comes first, then the shapes in file order.
 * The first failure cancels the build.
 */
func Build(ctx context.Context, cfg *Config, jobs JobSubmitter) ([]Instance, error) {
	placements, err := cfg.placements()
	if err != nil {
		return nil, err
	}

	unique := make(map[string]geometry.Shape)
	for _, p := range placements {
		unique[p.shape.Key()] = p.shape
	}

	var mu sync.Mutex
	meshes := make(map[string]*geometry.Mesh, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	for key, shape := range unique {
		key, shape := key, shape
		g.Go(func() error {
			mesh, err := generate(gctx, jobs, shape)
			if err != nil {
				return fmt.Errorf("generating %s: %w", key, err)
			}
			mu.Lock()
			meshes[key] = mesh
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		core.LogError("scene build failed: %s", err)
		return nil, err
	}

	instances := make([]Instance, len(placements))
	for i, p := range placements {
		key := p.shape.Key()
		instances[i] = Instance{
			Name:      p.name,
			MeshKey:   key,
			Transform: p.transform,
			Mesh:      meshes[key],
		}
	}
	triangles := 0
	for _, inst := range instances {
		triangles += inst.Mesh.TriangleCount()
	}
	core.LogDebug("scene built: %d instances from %d meshes, %d triangles", len(instances), len(meshes), triangles)
	return instances, nil
}

type jobResult struct {
	mesh *geometry.Mesh
	err  error
}

// generate runs one shape on the job system and waits for it.
func generate(ctx context.Context, jobs JobSubmitter, shape geometry.Shape) (*geometry.Mesh, error) {
	done := make(chan jobResult, 1)
	err := submit(ctx, jobs, metadata.JobTask{
		InputParams: shape,
		OnStart: func(params interface{}) (interface{}, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return params.(geometry.Shape).Generate()
		},
		OnComplete: func(result interface{}) {
			done <- jobResult{mesh: result.(*geometry.Mesh)}
		},
		OnFailure: func(err error) {
			done <- jobResult{err: err}
		},
	})
	if err != nil {
		return nil, err
	}

	select {
	case res := <-done:
		return res.mesh, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// submit retries while the queue is full, giving up when ctx is done.
func submit(ctx context.Context, jobs JobSubmitter, task metadata.JobTask) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := jobs.SubmitNonBlocking(task)
		if !errors.Is(err, metadata.ErrJobQueueFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(submitRetry):
		}
	}
}
