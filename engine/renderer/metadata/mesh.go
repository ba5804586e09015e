package metadata

import (
	"github.com/spaghettifunk/orbis/engine/math"
)

/**
 * @brief A placed object of the scene: an uploaded geometry and its transform.
 */
type Mesh struct {
	UniqueID   uint32
	Name       string
	Generation uint8
	Geometry   *Geometry
	Transform  *math.Transform
}

// RenderData returns the draw for this mesh with an up to date model matrix.
func (m *Mesh) RenderData() GeometryRenderData {
	return GeometryRenderData{
		Model:    m.Transform.GetLocal(),
		Geometry: m.Geometry,
	}
}
