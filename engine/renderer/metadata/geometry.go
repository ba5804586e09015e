package metadata

import (
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
)

/** @brief Marks an unused id slot. */
const (
	InvalidID       uint32 = 4294967295
	InvalidIDUint16 uint16 = 65535
)

type GeometryReference struct {
	ReferenceCount uint64
	Geometry       *Geometry
	/** @brief The key of the shape the geometry was generated from, if any. */
	Key string
}

/**
 * @brief Represents actual geometry in the world, uploaded to the renderer backend.
 */
type Geometry struct {
	/** @brief The geometry identifier. */
	ID uint32
	/** @brief The internal geometry identifier, used by the renderer backend to map to internal resources. */
	InternalID uint32
	/** @brief The geometry generation. Incremented every time the geometry changes. */
	Generation uint16
	/** @brief The center of the geometry in local coordinates. */
	Center math.Vec3
	/** @brief The extents of the geometry in local coordinates. */
	Extents math.Extents3D
	/** @brief The geometry name. */
	Name string
	/** @brief The vertex layout of the uploaded buffer. */
	Format geometry.VertexFormat
	/** @brief The number of vertices uploaded. */
	VertexCount uint32
	/** @brief The number of indices uploaded. */
	IndexCount uint32
}
