package engine

import (
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel

	// Directory holding shaders/ and scenes/. Empty disables indexing.
	AssetsDir string
	// Software renders headless, without a window.
	Renderer renderer.RendererType
	// Enables the Vulkan validation layers.
	Debug bool
	// Sleep away the remainder of each frame to hold TargetFPS.
	LimitFrameRate bool
	TargetFPS      float64
	// Number of mesh generation workers, 0 uses the system default.
	JobWorkers int

	ClearColour math.Vec3
	CullMode    metadata.FaceCullMode
	PolygonMode metadata.PolygonMode
}

// DefaultApplicationConfig opens an 800x600 window rendered by Vulkan.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  800,
		StartHeight: 600,
		Name:        "orbis",
		LogLevel:    core.LogLevelInfo,
		AssetsDir:   "assets",
		Renderer:    renderer.Vulkan,
		TargetFPS:   60,
		ClearColour: math.NewVec3(0.2, 0.3, 0.3),
		CullMode:    metadata.FaceCullModeBack,
		PolygonMode: metadata.PolygonModeFill,
	}
}

func (c *ApplicationConfig) backendConfig() *metadata.RendererBackendConfig {
	return &metadata.RendererBackendConfig{
		ApplicationName: c.Name,
		Width:           c.StartWidth,
		Height:          c.StartHeight,
		ClearColour:     c.ClearColour,
		CullMode:        c.CullMode,
		PolygonMode:     c.PolygonMode,
	}
}
