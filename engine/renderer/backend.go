package renderer

import (
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

// RendererBackend draws interleaved triangle meshes. Implementations are
// used from a single goroutine.
type RendererBackend interface {
	Initialize(config *metadata.RendererBackendConfig) error
	Shutdown() error
	Resized(width, height uint32) error
	// BeginFrame clears the targets. It returns core.ErrSwapchainBooting
	// when the frame has to be skipped.
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
	// CreateGeometry uploads the mesh and fills the backend fields of g.
	CreateGeometry(g *metadata.Geometry, mesh *geometry.Mesh) error
	DestroyGeometry(g *metadata.Geometry)
	DrawGeometry(data metadata.GeometryRenderData)
	SetView(view, projection math.Mat4)
	SetClearColour(colour math.Vec3)
}

type RendererType uint8

const (
	Vulkan RendererType = iota
	Software
)

func (t RendererType) String() string {
	switch t {
	case Vulkan:
		return "vulkan"
	case Software:
		return "software"
	}
	return "unknown"
}
