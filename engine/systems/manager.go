package systems

import (
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/renderer"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

type SystemManagerConfig struct {
	// Number of mesh generation workers.
	JobWorkers int
	// Capacity of the job queue.
	JobQueueSize     int
	MaxGeometryCount uint32
	MaxCameraCount   uint16
}

func DefaultSystemManagerConfig() SystemManagerConfig {
	return SystemManagerConfig{
		JobWorkers:       4,
		JobQueueSize:     64,
		MaxGeometryCount: 1024,
		MaxCameraCount:   16,
	}
}

type SystemManager struct {
	Renderer       *renderer.Renderer
	CameraSystem   *CameraSystem
	GeometrySystem *GeometrySystem
	JobSystem      *JobSystem
}

func NewSystemManager(r *renderer.Renderer, config SystemManagerConfig) (*SystemManager, error) {
	js, err := NewJobSystem(config.JobWorkers, config.JobQueueSize)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("job system started with %d workers", js.NumWorkers())
	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: config.MaxCameraCount,
	})
	if err != nil {
		return nil, err
	}
	gs, err := NewGeometrySystem(&GeometrySystemConfig{
		MaxGeometryCount: config.MaxGeometryCount,
	}, r)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		Renderer:       r,
		CameraSystem:   cs,
		GeometrySystem: gs,
		JobSystem:      js,
	}, nil
}

func (sm *SystemManager) Initialize(config *metadata.RendererBackendConfig) error {
	return sm.Renderer.Initialize(config)
}

func (sm *SystemManager) DrawFrame(packet *metadata.RenderPacket) error {
	return sm.Renderer.DrawFrame(packet)
}

func (sm *SystemManager) OnResize(width, height uint32) error {
	return sm.Renderer.OnResize(width, height)
}

// Shutdown stops the systems in reverse dependency order. Geometries are
// destroyed before the renderer goes away.
func (sm *SystemManager) Shutdown() error {
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.GeometrySystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.CameraSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.Renderer.Shutdown(); err != nil {
		return err
	}
	return nil
}
