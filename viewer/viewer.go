package viewer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spaghettifunk/orbis/engine"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/renderer/components"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
	"github.com/spaghettifunk/orbis/engine/scene"
)

// SceneCameraName is the camera system entry the viewer renders from.
const SceneCameraName = "scene"

type Options struct {
	// TOML scene to show. Empty uses the built-in scene.
	ScenePath string
	// Reload the scene when its file changes.
	Watch bool
	// Override the window size of the scene when not zero.
	Width  uint32
	Height uint32
}

/**
 * @brief The scene viewer application. It loads a scene, generates its
 * meshes on the job system and draws every instance each frame.
 */
type SceneViewer struct {
	*engine.Game
}

type viewerState struct {
	options   Options
	scenePath string
	config    *scene.Config

	camera *components.Camera
	meshes []*metadata.Mesh
	ids    *core.IdentifierPool
	// bumped on every successful reload
	generation uint8

	width  uint32
	height uint32

	reloadPending bool
	watchHandle   core.EventHandle
}

func New(config *engine.ApplicationConfig, opts Options) (*SceneViewer, error) {
	if config == nil {
		config = engine.DefaultApplicationConfig()
	}
	state := &viewerState{
		options: opts,
		ids:     core.NewIdentifierPool(64),
	}
	if opts.ScenePath != "" {
		abs, err := filepath.Abs(opts.ScenePath)
		if err != nil {
			return nil, err
		}
		state.scenePath = abs
	}

	v := &SceneViewer{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             state,
		},
	}
	v.FnBoot = v.Boot
	v.FnInitialize = v.Initialize
	v.FnUpdate = v.Update
	v.FnRender = v.Render
	v.FnOnResize = v.OnResize
	v.FnShutdown = v.Shutdown
	return v, nil
}

func (v *SceneViewer) state() *viewerState {
	return v.State.(*viewerState)
}

// Scene returns the scene currently on screen.
func (v *SceneViewer) Scene() *scene.Config {
	return v.state().config
}

// InstanceCount is the number of drawn instances, the ground included.
func (v *SceneViewer) InstanceCount() int {
	return len(v.state().meshes)
}

// Boot loads the scene and lets it size the window.
func (v *SceneViewer) Boot() error {
	core.LogInfo("booting scene viewer...")
	state := v.state()

	cfg, err := v.loadScene()
	if err != nil {
		return err
	}
	state.config = cfg

	config := v.ApplicationConfig
	config.Name = cfg.Window.Title
	config.StartPosX = cfg.Window.X
	config.StartPosY = cfg.Window.Y
	config.StartWidth = cfg.Window.Width
	config.StartHeight = cfg.Window.Height
	if state.options.Width != 0 {
		config.StartWidth = state.options.Width
	}
	if state.options.Height != 0 {
		config.StartHeight = state.options.Height
	}
	config.ClearColour = cfg.Render.ClearColor.ToVec3()
	config.CullMode = metadata.FaceCullModeNone
	if cfg.Render.CullBackFaces {
		config.CullMode = metadata.FaceCullModeBack
	}
	config.PolygonMode = metadata.PolygonModeFill
	if cfg.Render.Wireframe {
		config.PolygonMode = metadata.PolygonModeLine
	}
	state.width = config.StartWidth
	state.height = config.StartHeight
	return nil
}

func (v *SceneViewer) loadScene() (*scene.Config, error) {
	state := v.state()
	if state.scenePath == "" {
		core.LogInfo("No scene given, using the built-in scene.")
		return scene.Default(), nil
	}
	res, err := v.AssetManager.LoadAsset(state.scenePath, metadata.ResourceTypeScene)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = v.AssetManager.UnloadAsset(res)
	}()
	cfg, ok := res.Data.(*scene.Config)
	if !ok {
		return nil, fmt.Errorf("scene resource %s holds %T", state.scenePath, res.Data)
	}
	return cfg, nil
}

func (v *SceneViewer) Initialize() error {
	state := v.state()

	camera, err := v.SystemManager.CameraSystem.Acquire(SceneCameraName)
	if err != nil {
		return err
	}
	state.camera = camera
	v.applyCamera(state.config)

	meshes, err := v.buildScene(state.config)
	if err != nil {
		return err
	}
	state.meshes = meshes

	if state.options.Watch && state.scenePath != "" {
		if err := v.AssetManager.WatchFile(state.scenePath); err != nil {
			core.LogWarn("scene hot reload disabled: %s", err)
		} else {
			state.watchHandle = core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, v.onAssetChanged)
		}
	}
	core.LogInfo("Scene ready: %d instances, %d geometries.", len(meshes), v.SystemManager.GeometrySystem.Count())
	return nil
}

// buildScene generates the meshes and acquires one geometry reference per instance.
func (v *SceneViewer) buildScene(cfg *scene.Config) ([]*metadata.Mesh, error) {
	instances, err := scene.Build(context.Background(), cfg, v.SystemManager.JobSystem)
	if err != nil {
		return nil, err
	}

	state := v.state()
	meshes := make([]*metadata.Mesh, 0, len(instances))
	for _, inst := range instances {
		g, err := v.SystemManager.GeometrySystem.AcquireMesh(inst.MeshKey, inst.Mesh)
		if err != nil {
			v.releaseAll(meshes)
			return nil, fmt.Errorf("instance '%s': %w", inst.Name, err)
		}
		m := &metadata.Mesh{
			Name:       inst.Name,
			Generation: state.generation,
			Geometry:   g,
			Transform:  inst.Transform,
		}
		m.UniqueID = state.ids.AcquireNewID(m)
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func (v *SceneViewer) releaseAll(meshes []*metadata.Mesh) {
	ids := v.state().ids
	for _, m := range meshes {
		v.SystemManager.GeometrySystem.Release(m.Geometry)
		if err := ids.ReleaseID(m.UniqueID); err != nil {
			core.LogWarn(err.Error())
		}
	}
}

func (v *SceneViewer) applyCamera(cfg *scene.Config) {
	camera := v.state().camera
	camera.SetPosition(cfg.Camera.Position.ToVec3())
	camera.SetTarget(cfg.Camera.Target.ToVec3())
	camera.SetUp(cfg.Camera.Up.ToVec3())
	camera.SetPerspective(cfg.Camera.Fov, cfg.Camera.Near, cfg.Camera.Far)
}

func (v *SceneViewer) onAssetChanged(context core.EventContext) bool {
	ae, ok := context.Data.(*core.AssetEvent)
	if !ok {
		return false
	}
	state := v.state()
	if ae.Path != state.scenePath {
		return false
	}
	core.LogInfo("Scene %s changed, reloading.", ae.Path)
	state.reloadPending = true
	return true
}

func (v *SceneViewer) Update(deltaTime float64) error {
	state := v.state()
	if state.reloadPending {
		state.reloadPending = false
		if err := v.Reload(); err != nil {
			core.LogError("scene reload failed, keeping the previous scene: %s", err)
		}
	}
	return nil
}

/**
 * @brief Loads the scene file again and swaps it in. On failure the scene
 * on screen is left untouched. Window and pipeline settings (size, culling,
 * wireframe) only apply at startup.
 */
func (v *SceneViewer) Reload() error {
	state := v.state()
	if state.scenePath == "" {
		return errors.New("the built-in scene cannot be reloaded")
	}
	cfg, err := v.loadScene()
	if err != nil {
		return err
	}
	state.generation++
	meshes, err := v.buildScene(cfg)
	if err != nil {
		state.generation--
		return err
	}

	// acquire before release so unchanged shapes keep their uploaded geometry
	v.releaseAll(state.meshes)
	state.meshes = meshes
	state.config = cfg
	v.applyCamera(cfg)
	v.SystemManager.Renderer.SetClearColour(cfg.Render.ClearColor.ToVec3())
	core.LogInfo("Scene reloaded (generation %d): %d instances, %d geometries.", state.generation, len(meshes), v.SystemManager.GeometrySystem.Count())
	return nil
}

func (v *SceneViewer) Render(packet *metadata.RenderPacket, deltaTime float64) error {
	state := v.state()
	aspect := float32(1)
	if state.height != 0 {
		aspect = float32(state.width) / float32(state.height)
	}
	packet.View = state.camera.View()
	packet.Projection = state.camera.Projection(aspect)
	packet.Geometries = make([]metadata.GeometryRenderData, 0, len(state.meshes))
	for _, m := range state.meshes {
		packet.Geometries = append(packet.Geometries, m.RenderData())
	}
	return nil
}

func (v *SceneViewer) OnResize(width uint32, height uint32) error {
	state := v.state()
	state.width = width
	state.height = height
	return nil
}

func (v *SceneViewer) Shutdown() error {
	state := v.state()
	if state.watchHandle != 0 {
		core.EventUnregister(core.EVENT_CODE_ASSET_CHANGED, state.watchHandle)
		state.watchHandle = 0
		if err := v.AssetManager.UnwatchFile(state.scenePath); err != nil {
			core.LogWarn(err.Error())
		}
	}
	v.releaseAll(state.meshes)
	state.meshes = nil
	if state.camera != nil {
		v.SystemManager.CameraSystem.Release(SceneCameraName)
		state.camera = nil
	}
	return nil
}
