package metadata

import "github.com/spaghettifunk/orbis/engine/math"

/** @brief Determines face culling mode during rendering. */
type FaceCullMode int

const (
	/** @brief No faces are culled. */
	FaceCullModeNone FaceCullMode = 0x0
	/** @brief Only front faces are culled. */
	FaceCullModeFront FaceCullMode = 0x1
	/** @brief Only back faces are culled. */
	FaceCullModeBack FaceCullMode = 0x2
	/** @brief Both front and back faces are culled. */
	FaceCullModeFrontAndBack FaceCullMode = 0x3
)

/** @brief Determines how triangles are rasterized. */
type PolygonMode int

const (
	PolygonModeFill PolygonMode = iota
	PolygonModeLine
)

/**
 * @brief A single indexed draw: a geometry placed by its model matrix.
 */
type GeometryRenderData struct {
	Model    math.Mat4
	Geometry *Geometry
}

/**
 * @brief A structure which is generated by the application and sent once
 * to the renderer to render a given frame.
 */
type RenderPacket struct {
	DeltaTime float64
	/** @brief The view matrix of the camera. */
	View math.Mat4
	/** @brief The projection matrix of the camera. */
	Projection math.Mat4
	/** @brief The Geometries to be drawn, in order. */
	Geometries []GeometryRenderData
}
