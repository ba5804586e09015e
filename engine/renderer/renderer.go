package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

// Renderer is the frontend the systems talk to. It owns the backend.
type Renderer struct {
	backend     RendererBackend
	initialized bool

	// The current window framebuffer width.
	FramebufferWidth uint32
	// The current window framebuffer height.
	FramebufferHeight uint32
	// The number of frames drawn since start.
	FrameNumber uint64
}

func New(backend RendererBackend) *Renderer {
	return &Renderer{
		backend: backend,
	}
}

func (r *Renderer) Initialize(config *metadata.RendererBackendConfig) error {
	if r.backend == nil {
		err := fmt.Errorf("renderer has no backend: %w", core.ErrBackendNotInitialized)
		core.LogError(err.Error())
		return err
	}
	if err := r.backend.Initialize(config); err != nil {
		core.LogError("renderer backend failed to initialize: %s", err)
		return err
	}
	r.FramebufferWidth = config.Width
	r.FramebufferHeight = config.Height
	r.initialized = true
	core.LogInfo("Renderer initialized.")
	return nil
}

func (r *Renderer) Shutdown() error {
	if !r.initialized {
		return nil
	}
	r.initialized = false
	return r.backend.Shutdown()
}

func (r *Renderer) OnResize(width, height uint32) error {
	r.FramebufferWidth = width
	r.FramebufferHeight = height
	if !r.initialized {
		core.LogWarn("renderer resized before initialization: %dx%d", width, height)
		return nil
	}
	return r.backend.Resized(width, height)
}

// AspectRatio is width over height of the framebuffer, 1 if unknown.
func (r *Renderer) AspectRatio() float32 {
	if r.FramebufferWidth == 0 || r.FramebufferHeight == 0 {
		return 1
	}
	return float32(r.FramebufferWidth) / float32(r.FramebufferHeight)
}

func (r *Renderer) SetClearColour(colour math.Vec3) {
	if r.backend != nil {
		r.backend.SetClearColour(colour)
	}
}

/**
 * @brief Draws one frame: every geometry of the packet with one indexed
 * triangle list draw each. A skipped frame is not an error.
 */
func (r *Renderer) DrawFrame(packet *metadata.RenderPacket) error {
	if !r.initialized {
		return core.ErrBackendNotInitialized
	}

	r.backend.SetView(packet.View, packet.Projection)

	if err := r.backend.BeginFrame(packet.DeltaTime); err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			core.LogDebug("frame skipped: %s", err)
			return nil
		}
		core.LogError(err.Error())
		return err
	}

	for _, data := range packet.Geometries {
		if data.Geometry == nil || data.Geometry.ID == metadata.InvalidID {
			continue
		}
		r.backend.DrawGeometry(data)
	}

	if err := r.backend.EndFrame(packet.DeltaTime); err != nil {
		core.LogError("RendererEndFrame failed: %s", err)
		return err
	}
	r.FrameNumber++
	return nil
}

func (r *Renderer) CreateGeometry(g *metadata.Geometry, mesh *geometry.Mesh) error {
	if !r.initialized {
		return core.ErrBackendNotInitialized
	}
	return r.backend.CreateGeometry(g, mesh)
}

func (r *Renderer) DestroyGeometry(g *metadata.Geometry) {
	if !r.initialized {
		return
	}
	r.backend.DestroyGeometry(g)
}
