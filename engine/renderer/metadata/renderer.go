package metadata

import "github.com/spaghettifunk/orbis/engine/math"

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	/** @brief The initial framebuffer width. */
	Width uint32
	/** @brief The initial framebuffer height. */
	Height uint32
	/** @brief The color the framebuffer is cleared to every frame. */
	ClearColour math.Vec3
	/** @brief Which faces are discarded. The front face is counter-clockwise. */
	CullMode FaceCullMode
	/** @brief Fill or wireframe rasterization. */
	PolygonMode PolygonMode
}

/** @brief A range, typically of memory */
type MemoryRange struct {
	/** @brief The Offset in bytes. */
	Offset uint64
	/** @brief The size in bytes. */
	Size uint64
}
